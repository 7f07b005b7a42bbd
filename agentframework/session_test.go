// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"errors"
	"testing"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

func TestNewSession_DefaultsToMemoryStore(t *testing.T) {
	s := af.NewSession()
	if s.ID() == "" {
		t.Fatal("session ID should not be empty")
	}
	if _, ok := s.Store().(*af.InMemoryStore); !ok {
		t.Errorf("store = %T, want *InMemoryStore", s.Store())
	}
	if af.NewSession().ID() == s.ID() {
		t.Error("session IDs should be unique")
	}
}

func TestInMemoryStore(t *testing.T) {
	store := af.NewInMemoryStore()
	ctx := context.Background()

	msgs, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("initial len = %d", len(msgs))
	}

	err = store.AddMessages(ctx, []af.Message{
		af.NewUserMessage("hello"),
		af.NewAssistantMessage("hi there"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	msgs, _ = store.ListMessages(ctx)
	if len(msgs) != 2 || store.Len() != 2 {
		t.Errorf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Text() != "hello" {
		t.Errorf("[0].Text() = %q", msgs[0].Text())
	}

	// ListMessages returns a copy
	msgs[0] = af.NewAssistantMessage("modified")
	original, _ := store.ListMessages(ctx)
	if original[0].Text() != "hello" {
		t.Error("ListMessages should return a copy")
	}
}

type failingStore struct{}

func (failingStore) ListMessages(context.Context) ([]af.Message, error) {
	return nil, errors.New("disk gone")
}
func (failingStore) AddMessages(context.Context, []af.Message) error { return nil }

func TestAgent_SessionLoadFailure(t *testing.T) {
	agent := af.NewAgent(&mockClient{responseFn: reply("ok")})
	s := af.NewSession(af.WithSessionStore(failingStore{}))

	_, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("hi")}, af.WithSession(s))
	if !errors.Is(err, af.ErrSession) {
		t.Fatalf("err = %v, want ErrSession", err)
	}
}

// batchStore records the size of each AddMessages call.
type batchStore struct {
	af.InMemoryStore
	batches []int
}

func (s *batchStore) AddMessages(ctx context.Context, msgs []af.Message) error {
	s.batches = append(s.batches, len(msgs))
	return s.InMemoryStore.AddMessages(ctx, msgs)
}

func TestSession_RecordsTurnInOneCall(t *testing.T) {
	store := &batchStore{}
	session := af.NewSession(af.WithSessionStore(store))
	agent := af.NewAgent(&mockClient{responseFn: reply("pong")})

	if _, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("ping")}, af.WithSession(session)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.batches) != 1 || store.batches[0] != 2 {
		t.Fatalf("AddMessages batches = %v, want [2]", store.batches)
	}
	msgs, _ := store.ListMessages(context.Background())
	if msgs[0].Text() != "ping" || msgs[1].Text() != "pong" {
		t.Errorf("history = %q, %q", msgs[0].Text(), msgs[1].Text())
	}
}
