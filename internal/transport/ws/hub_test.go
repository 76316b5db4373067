package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// genai's metrics worker starts at init and never exits
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub, cancel
}

func receive(t *testing.T, ch <-chan []byte) (Message, bool) {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			return Message{}, false
		}
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg, true
	case <-time.After(time.Second):
		t.Fatal("no message from hub")
		return Message{}, false
	}
}

func TestHubBroadcastReachesEveryTab(t *testing.T) {
	hub, _ := startHub(t)

	a := &Connection{SessionID: "s1", Send: make(chan []byte, 4), Hub: hub}
	b := &Connection{SessionID: "s1", Send: make(chan []byte, 4), Hub: hub}
	other := &Connection{SessionID: "s2", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)
	assert.Equal(t, 2, hub.Connections("s1"))

	hub.BroadcastToSession("s1", string(MsgSessionState), map[string]int{"currentIndex": 3})

	for _, conn := range []*Connection{a, b} {
		msg, ok := receive(t, conn.Send)
		require.True(t, ok)
		assert.Equal(t, MsgSessionState, msg.Type)
		assert.JSONEq(t, `{"currentIndex":3}`, string(msg.Payload))
	}
	assert.Empty(t, other.Send)
}

func TestHubUnregisterAndCloseSession(t *testing.T) {
	hub, _ := startHub(t)

	a := &Connection{SessionID: "s1", Send: make(chan []byte, 1), Hub: hub}
	b := &Connection{SessionID: "s1", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(a)
	hub.Register(b)

	hub.Unregister(a)
	_, ok := receive(t, a.Send)
	assert.False(t, ok, "unregistered connection is closed")

	hub.CloseSession("s1")
	_, ok = receive(t, b.Send)
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return hub.Connections("s1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStopClosesConnections(t *testing.T) {
	hub, cancel := startHub(t)

	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(conn)
	cancel()

	_, ok := receive(t, conn.Send)
	assert.False(t, ok)

	<-hub.done
	late := &Connection{SessionID: "s1", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(late)
	_, ok = receive(t, late.Send)
	assert.False(t, ok, "registering after stop closes immediately")

	// Must not block once the hub is gone
	hub.Unregister(conn)
	hub.CloseSession("s1")
	hub.sendTo(conn, MsgError, map[string]string{"error": "x"})
}

func TestHubInitialFrameCoversEarlierBroadcasts(t *testing.T) {
	hub, _ := startHub(t)

	// Nobody watches s1 yet, so this broadcast is dropped
	hub.BroadcastToSession("s1", string(MsgSessionState), map[string]string{"phase": "evaluating"})

	latest := `{"phase":"completed"}`
	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 4), Hub: hub}
	conn.Initial = func() []byte {
		data, _ := json.Marshal(&Message{Type: MsgSessionState, Payload: json.RawMessage(latest)})
		return data
	}
	hub.Register(conn)

	msg, ok := receive(t, conn.Send)
	require.True(t, ok)
	assert.JSONEq(t, latest, string(msg.Payload))

	hub.BroadcastToSession("s1", string(MsgSessionState), map[string]string{"phase": "completed", "n": "2"})
	msg, ok = receive(t, conn.Send)
	require.True(t, ok)
	assert.JSONEq(t, `{"phase":"completed","n":"2"}`, string(msg.Payload))
}
