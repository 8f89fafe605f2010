package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内会话存储，CLI 与测试使用
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	session  Session
	deadline time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrExpired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = memoryItem{session: *s, deadline: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	item, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(item.deadline) {
		m.mu.Lock()
		delete(m.items, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	s := item.session
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
