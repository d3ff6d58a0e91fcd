package mocks

import (
	"sync"

	"prompt-studio/internal/viewmodel"
)

// Notification - одно записанное уведомление.
type Notification struct {
	Level   viewmodel.Level
	Message string
}

// RecordingNotifier запоминает все уведомления по порядку.
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *RecordingNotifier) Notify(level viewmodel.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Level: level, Message: message})
}

// All возвращает копию записанных уведомлений.
func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Last возвращает последнее уведомление.
func (n *RecordingNotifier) Last() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}, false
	}
	return n.items[len(n.items)-1], true
}
