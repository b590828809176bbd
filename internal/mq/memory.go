package mq

import (
	"context"
	"strconv"
	"sync"
)

// MemoryBackend is an in-process backend for tests and single-node
// deployments without a broker. Messages published to a channel are
// delivered to every active subscriber of that channel.
type MemoryBackend struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]chan Message
	closed bool
}

// NewMemoryBackend constructs an in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{subs: make(map[string][]chan Message)}
}

// Publish delivers the message to current subscribers of the channel.
// Messages published with no subscriber are dropped.
func (m *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	m.nextID++
	id := strconv.Itoa(m.nextID)
	targets := append([]chan Message(nil), m.subs[channel]...)
	m.mu.Unlock()

	msg := Message{ID: id, Data: data, Attributes: attrs}
	for _, target := range targets {
		select {
		case target <- msg:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return id, nil
}

// Subscribe consumes messages from the channel until the context ends.
func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	delivery := make(chan Message, 16)

	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], delivery)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		active := m.subs[channel][:0]
		for _, sub := range m.subs[channel] {
			if sub != delivery {
				active = append(active, sub)
			}
		}
		m.subs[channel] = active
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-delivery:
			// Handler errors are swallowed; there is no redelivery
			// in-process.
			_ = handler(ctx, msg)
		}
	}
}

// Close marks the backend closed. Outstanding subscribers exit via their
// contexts.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
