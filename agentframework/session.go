// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MessageStore persists conversation messages for a [Session].
type MessageStore interface {
	// ListMessages returns all stored messages in order.
	ListMessages(ctx context.Context) ([]Message, error)

	// AddMessages appends messages to the store.
	AddMessages(ctx context.Context, msgs []Message) error
}

// Session carries the conversation history of a multi-turn interaction.
// A session is bound to a single agent; sharing one across agents mixes
// their histories.
type Session struct {
	id    string
	store MessageStore
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithSessionStore sets the message store backing the session.
func WithSessionStore(store MessageStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// NewSession creates a Session with a generated ID. Without
// [WithSessionStore] it keeps history in an [InMemoryStore].
func NewSession(opts ...SessionOption) *Session {
	s := &Session{id: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewInMemoryStore()
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Store returns the session's message store.
func (s *Session) Store() MessageStore { return s.store }

func (s *Session) history(ctx context.Context) ([]Message, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %w", ErrSession, err)
	}
	return msgs, nil
}

// record appends one turn in a single store call so concurrent turns
// never interleave.
func (s *Session) record(ctx context.Context, request, response []Message) error {
	turn := make([]Message, 0, len(request)+len(response))
	turn = append(turn, request...)
	turn = append(turn, response...)
	if err := s.store.AddMessages(ctx, turn); err != nil {
		return fmt.Errorf("%w: %w", ErrSession, err)
	}
	return nil
}

// InMemoryStore is a [MessageStore] safe for concurrent use.
type InMemoryStore struct {
	mu       sync.Mutex
	messages []Message
}

// NewInMemoryStore creates an empty [InMemoryStore].
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) ListMessages(_ context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Message, len(s.messages))
	copy(cp, s.messages)
	return cp, nil
}

func (s *InMemoryStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	return nil
}

// Len returns the number of stored messages.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
