package mq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendDeliversToSubscriber(t *testing.T) {
	bus := New(NewMemoryBackend())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	go func() {
		_ = bus.Subscribe(ctx, ChannelEvents, func(ctx context.Context, msg Message) error {
			received <- msg
			return nil
		})
	}()

	// Let the subscriber register before publishing.
	time.Sleep(10 * time.Millisecond)

	id, err := bus.Publish(ctx, ChannelEvents, []byte(`{"eventType":"port_scan"}`), map[string]string{"source": "sensor-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case msg := <-received:
		assert.Equal(t, id, msg.ID)
		assert.JSONEq(t, `{"eventType":"port_scan"}`, string(msg.Data))
		assert.Equal(t, "sensor-1", msg.Attributes["source"])
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMemoryBackendDropsWithoutSubscribers(t *testing.T) {
	bus := New(NewMemoryBackend())
	defer bus.Close()

	_, err := bus.Publish(context.Background(), ChannelAudit, []byte("{}"), nil)
	assert.NoError(t, err)
}

func TestMemoryBackendSubscribeStopsOnCancel(t *testing.T) {
	bus := New(NewMemoryBackend())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, ChannelEvents, func(ctx context.Context, msg Message) error {
			return nil
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("subscribe did not stop")
	}
}
