package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rehiy/modem-connect/events"
	"github.com/rehiy/modem-connect/logger"
)

// WebSocketHandler WebSocket处理器，实时推送状态事件
type WebSocketHandler struct {
	listener *events.EventListener
}

// NewWebSocketHandler 创建新的WebSocket处理器
func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		listener: events.GetEventListener(),
	}
}

// HandleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.App.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logger.App.Infof("WebSocket client connected: %s", r.RemoteAddr)

	ch, unsubscribe := h.listener.Subscribe(100)
	defer unsubscribe()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.App.Infof("WebSocket client disconnected: %v(%s)", r.RemoteAddr, err)
				return
			}
		case <-time.After(30 * time.Second):
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.App.Infof("WebSocket client disconnected: %v(%s)", r.RemoteAddr, err)
				return
			}
		}
	}
}
