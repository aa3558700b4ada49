package events

import (
	"sync"
	"time"

	"github.com/rehiy/modem-connect/models"
)

var (
	listenerOnce     sync.Once
	listenerInstance *EventListener
)

// StatusEvent 看门狗广播的状态事件，供只读消费者订阅。
type StatusEvent struct {
	Type     string                 `json:"type"` // state | signal
	State    models.ConnectionState `json:"state,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Snapshot *models.SignalSnapshot `json:"snapshot,omitempty"`
	Time     time.Time              `json:"time"`
}

// EventListener 管理事件订阅和广播。
type EventListener struct {
	pool map[chan StatusEvent]struct{}
	sync.RWMutex
}

// GetEventListener 返回 EventListener 的单例实例。
func GetEventListener() *EventListener {
	listenerOnce.Do(func() {
		listenerInstance = &EventListener{pool: make(map[chan StatusEvent]struct{})}
	})
	return listenerInstance
}

// Broadcast 非阻塞地向所有订阅者发送事件。
// 如果订阅者的通道已满，则跳过该订阅者。
func (el *EventListener) Broadcast(ev StatusEvent) {
	el.RLock()
	defer el.RUnlock()

	for ch := range el.pool {
		select {
		case ch <- ev:
		default:
			// 通道已满，跳过
		}
	}
}

// Subscribe 创建一个新的订阅通道。
// 返回接收事件的通道和取消订阅的函数。
func (el *EventListener) Subscribe(buffer int) (chan StatusEvent, func()) {
	if buffer <= 0 {
		buffer = 100
	}
	ch := make(chan StatusEvent, buffer)

	el.Lock()
	el.pool[ch] = struct{}{}
	el.Unlock()

	return ch, func() {
		el.Lock()
		defer el.Unlock()
		if _, ok := el.pool[ch]; ok {
			delete(el.pool, ch)
			close(ch)
		}
	}
}
