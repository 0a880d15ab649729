package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guvenli/messenger/internal/logging"
)

func newTestClient() *Client {
	// nil conn is fine as long as the pumps are not started
	return NewClient(nil)
}

func newRegistry() *Registry {
	return NewRegistry(logging.NewDefault())
}

func TestPush_DeliversToConnectedUser(t *testing.T) {
	r := newRegistry()
	c := newTestClient()
	r.Register("u-1", c)

	ok := r.Push(context.Background(), "u-1", map[string]string{"type": "new_message"})
	require.True(t, ok)

	select {
	case data := <-c.send:
		var got map[string]string
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "new_message", got["type"])
	default:
		t.Fatal("expected a queued frame")
	}
}

func TestPush_OfflineUserIsNoOp(t *testing.T) {
	r := newRegistry()

	ok := r.Push(context.Background(), "ghost", map[string]string{"type": "new_message"})
	assert.False(t, ok)
}

func TestPush_FullQueueDropsFrame(t *testing.T) {
	r := newRegistry()
	c := newTestClient()
	r.Register("u-1", c)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, r.Push(context.Background(), "u-1", i))
	}
	assert.False(t, r.Push(context.Background(), "u-1", "overflow"))
}

func TestRegister_ReplacesExistingConnection(t *testing.T) {
	r := newRegistry()
	first := newTestClient()
	second := newTestClient()

	r.Register("u-1", first)
	r.Register("u-1", second)

	select {
	case <-first.done:
	default:
		t.Fatal("replaced connection must be closed")
	}

	require.True(t, r.Push(context.Background(), "u-1", "hi"))
	select {
	case <-second.send:
	default:
		t.Fatal("push must reach the new connection")
	}
}

func TestUnregister_StaleConnectionKeepsCurrent(t *testing.T) {
	r := newRegistry()
	first := newTestClient()
	second := newTestClient()

	r.Register("u-1", first)
	r.Register("u-1", second)
	r.Unregister("u-1", first)

	assert.True(t, r.IsConnected("u-1"))

	r.Unregister("u-1", second)
	assert.False(t, r.IsConnected("u-1"))
}

func TestPush_ClosedClientReturnsFalse(t *testing.T) {
	r := newRegistry()
	c := newTestClient()
	r.Register("u-1", c)
	c.Close()

	assert.False(t, r.Push(context.Background(), "u-1", "hi"))
}
