package store

import (
	"sync"

	"github.com/mr-mark-a/messagecaller/internal/model"
)

type messageStore struct {
	mu   sync.RWMutex
	data map[string][]model.Message
}

func newMessageStore() *messageStore {
	return &messageStore{data: make(map[string][]model.Message)}
}

// append keeps timestamps non-decreasing within a conversation so the log
// stays chronological even if the wall clock steps back.
func (m *messageStore) append(key string, msg model.Message) model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.data[key]
	if n := len(log); n > 0 && msg.Timestamp < log[n-1].Timestamp {
		msg.Timestamp = log[n-1].Timestamp
	}
	m.data[key] = append(log, msg)
	return msg
}

func (m *messageStore) list(key string) []model.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.data[key]
	result := make([]model.Message, len(msgs))
	copy(result, msgs)
	return result
}

func (m *messageStore) conversations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
