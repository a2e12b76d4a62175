package users

import (
	"context"
	"sync"
)

// Memory is a Store held in process memory
type Memory struct {
	mu      sync.RWMutex
	byLogin map[string]User
}

func NewMemory() *Memory {
	return &Memory{byLogin: make(map[string]User)}
}

func (m *Memory) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byLogin[u.Login]; ok {
		return ErrLoginTaken
	}
	m.byLogin[u.Login] = *u
	return nil
}

func (m *Memory) FindByLogin(_ context.Context, login string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byLogin[login]
	if !ok {
		return nil, ErrUnknownLogin
	}
	return &u, nil
}
