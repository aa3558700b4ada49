package handler

import (
	"net/http"
	"strconv"

	"github.com/rehiy/modem-connect/database"
	"github.com/rehiy/modem-connect/watchdog"
)

// StatusHandler 状态查询处理器，只读消费看门狗状态。
type StatusHandler struct {
	status *watchdog.Status
}

// NewStatusHandler 创建新的状态查询处理器
func NewStatusHandler(status *watchdog.Status) *StatusHandler {
	return &StatusHandler{status: status}
}

// GetStatus 返回连接状态总览
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status.Overview())
}

// GetSignal 返回最近的信号快照
func (h *StatusHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status.Snapshot())
}

// GetEvents 返回最近的连接状态变更记录
func (h *StatusHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := database.GetConnectionEvents(limit)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, H{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// GetSamples 返回最近的信号采样记录
func (h *StatusHandler) GetSamples(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	samples, err := database.GetSignalSamples(limit)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, H{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, samples)
}
