package watchdog

import (
	"sync"

	"github.com/rehiy/modem-connect/models"
)

// Overview 状态接口返回的完整只读视图。
type Overview struct {
	State     models.ConnectionState `json:"state"`
	Port      string                 `json:"port,omitempty"`
	Interface string                 `json:"interface,omitempty"`
	Identity  models.ModemIdentity   `json:"identity"`
	Network   *models.NetworkConfig  `json:"network,omitempty"`
	Signal    models.SignalSnapshot  `json:"signal"`
}

// Status 看门狗持有的共享状态。快照整体替换，
// 读者永远看不到半新半旧的值。
type Status struct {
	mu       sync.RWMutex
	state    models.ConnectionState
	snap     models.SignalSnapshot
	identity models.ModemIdentity
	network  *models.NetworkConfig
	port     string
	iface    string
}

// NewStatus 初始状态为 discovering。
func NewStatus() *Status {
	return &Status{state: models.StateDiscovering}
}

// State 返回当前连接状态。
func (s *Status) State() models.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot 返回最近的信号快照。
func (s *Status) Snapshot() models.SignalSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Overview 返回完整视图的拷贝。
func (s *Status) Overview() Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Overview{
		State:     s.state,
		Port:      s.port,
		Interface: s.iface,
		Identity:  s.identity,
		Network:   s.network,
		Signal:    s.snap,
	}
}

func (s *Status) setState(state models.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Status) setEndpoints(port, iface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port, s.iface = port, iface
}

func (s *Status) setIdentity(ident models.ModemIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ident
}

func (s *Status) setNetwork(cfg *models.NetworkConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = cfg
}

func (s *Status) setSnapshot(snap models.SignalSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// markStale 轮询失败：保留旧值，仅标记过期并记录失败原因。
func (s *Status) markStale(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Stale = true
	snap.FetchError = reason
	s.snap = snap
}
