// Copyright (c) Microsoft. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrUnknownTool is returned when a name has no registered handler.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrInvalidTool is returned for entries without a name.
	ErrInvalidTool = errors.New("invalid tool")
)

// Entry is a named handler a host framework can expose to a model.
type Entry interface {
	Name() string
	Description() string
	// ArgsType is the struct type the arguments decode into. Hosts derive
	// the parameter schema from it.
	ArgsType() reflect.Type
	// Call decodes raw into the argument type and runs the handler.
	Call(ctx context.Context, raw json.RawMessage) Result
}

// Func is an [Entry] with typed arguments.
type Func[Args any] struct {
	name        string
	description string
	fn          func(context.Context, Args) Result
}

// NewFunc creates a typed registry entry.
func NewFunc[Args any](name, description string, fn func(context.Context, Args) Result) *Func[Args] {
	return &Func[Args]{name: name, description: description, fn: fn}
}

func (f *Func[Args]) Name() string           { return f.name }
func (f *Func[Args]) Description() string    { return f.description }
func (f *Func[Args]) ArgsType() reflect.Type { return reflect.TypeFor[Args]() }

// Handle runs the handler with already decoded arguments.
func (f *Func[Args]) Handle(ctx context.Context, args Args) Result {
	return f.fn(ctx, args)
}

func (f *Func[Args]) Call(ctx context.Context, raw json.RawMessage) Result {
	var args Args
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return Failf("Invalid arguments for %s: %v", f.name, err)
		}
	}
	return f.fn(ctx, args)
}

// Registry maps tool names to handlers, preserving registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byName  map[string]Entry
}

// NewRegistry creates a registry holding entries.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byName: make(map[string]Entry)}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds e. Empty and duplicate names are rejected.
func (r *Registry) Register(e Entry) error {
	if e == nil || e.Name() == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTool)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[e.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, e.Name())
	}
	r.entries = append(r.entries, e)
	r.byName[e.Name()] = e
	return nil
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e, ok
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name()
	}
	return names
}

// Select resolves names in order. Any unknown name fails the whole call
// with [ErrUnknownTool].
func (r *Registry) Select(names ...string) ([]Entry, error) {
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		e, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		out = append(out, e)
	}
	return out, nil
}

// Call runs the named tool. An unknown name yields a [Failure].
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) Result {
	e, ok := r.Lookup(name)
	if !ok {
		return Failf("Unknown tool: %s", name)
	}
	return e.Call(ctx, raw)
}
