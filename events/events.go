// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package events fans out code rotations, showing changes and votes to any
// number of listeners. Core components publish through a Sink and never
// depend on a listener being registered.
package events

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/now-showing/models"
)

// Sink receives events. Publish must not block for long.
type Sink interface {
	Publish(ev models.Event)
}

// Listener is a function-shaped Sink.
type Listener func(ev models.Event)

func (l Listener) Publish(ev models.Event) { l(ev) }

// Discard drops every event.
var Discard Sink = Listener(func(models.Event) {})

// Bus delivers each event to every subscribed listener in registration order.
type Bus struct {
	mu        sync.RWMutex
	listeners []Sink
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for all future events.
func (b *Bus) Subscribe(s Sink) {
	b.mu.Lock()
	b.listeners = append(b.listeners, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ev models.Event) {
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()

	for _, l := range listeners {
		deliver(l, ev)
	}
}

// deliver isolates the publisher from a panicking listener
func deliver(l Sink, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("event listener panicked", "kind", ev.Kind, "panic", r)
		}
	}()
	l.Publish(ev)
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
