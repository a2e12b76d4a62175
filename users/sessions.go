package users

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNoSession is returned for a missing, unknown, or closed session token
var ErrNoSession = errors.New("no active session")

// Sessions maps opaque session tokens to user ids
type Sessions struct {
	mu     sync.RWMutex
	tokens map[string]uuid.UUID
}

func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]uuid.UUID)}
}

// Open starts a session for the user and returns its token
func (s *Sessions) Open(userID uuid.UUID) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token, nil
}

// Resolve returns the user id behind a session token
func (s *Sessions) Resolve(token string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, ErrNoSession
	}
	return id, nil
}

// Close ends a session. Closing an unknown token is not an error
func (s *Sessions) Close(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
