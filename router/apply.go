package router

import (
	"github.com/gorilla/mux"

	"github.com/rehiy/modem-connect/handler"
	"github.com/rehiy/modem-connect/watchdog"
)

// Apply 构建只读状态 API 的路由。
func Apply(status *watchdog.Status) *mux.Router {
	r := mux.NewRouter()

	// API 路由
	api := r.PathPrefix("/api").Subrouter()
	StatusRegister(api, status)

	// WebSocket
	WebSocketRegister(r)

	return r
}

func StatusRegister(r *mux.Router, status *watchdog.Status) {
	sh := handler.NewStatusHandler(status)

	// 状态总览与信号快照
	r.HandleFunc("/status", sh.GetStatus).Methods("GET")
	r.HandleFunc("/signal", sh.GetSignal).Methods("GET")

	// 连接日志
	r.HandleFunc("/events", sh.GetEvents).Methods("GET")
	r.HandleFunc("/samples", sh.GetSamples).Methods("GET")
}

func WebSocketRegister(r *mux.Router) {
	ws := handler.NewWebSocketHandler()

	r.HandleFunc("/ws/status", ws.HandleWebSocket)
}
