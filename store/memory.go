package store

import (
	"context"
	"sync"

	"github.com/bastionzero/toysign"
	"github.com/google/uuid"
)

// Memory is a Store held in process memory
type Memory struct {
	mu       sync.RWMutex
	keyPairs map[uuid.UUID]toysign.KeyPair
}

func NewMemory() *Memory {
	return &Memory{keyPairs: make(map[uuid.UUID]toysign.KeyPair)}
}

func (m *Memory) Create(_ context.Context, kp *toysign.KeyPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keyPairs[kp.ID]; ok {
		return ErrDuplicateID
	}
	m.keyPairs[kp.ID] = *kp
	return nil
}

func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*toysign.KeyPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kp, ok := m.keyPairs[id]
	if !ok {
		return nil, toysign.ErrNotFound
	}
	return &kp, nil
}

func (m *Memory) ListByOwner(_ context.Context, owner uuid.UUID) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]Summary, 0)
	for _, kp := range m.keyPairs {
		if kp.OwnerID == owner {
			summaries = append(summaries, Summary{ID: kp.ID, Name: kp.Name})
		}
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (m *Memory) Rename(_ context.Context, id uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kp, ok := m.keyPairs[id]
	if !ok {
		return toysign.ErrNotFound
	}
	kp.Name = name
	m.keyPairs[id] = kp
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keyPairs[id]; !ok {
		return toysign.ErrNotFound
	}
	delete(m.keyPairs, id)
	return nil
}
