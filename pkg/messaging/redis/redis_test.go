package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, err := NewRedisBroker(ctx, Config{URL: "redis://" + mr.Addr(), PoolSize: 2}, nil)
	require.NoError(t, err)
	defer broker.Close()

	msgs, err := broker.Subscribe(ctx, "collabcare.events")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "collabcare.events", map[string]string{"type": "intake.created"}))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"type":"intake.created"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewRedisBroker_BadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "://nope"}, nil)
	assert.Error(t, err)
}
