package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/domain/event"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil, zap.NewNop())
	require.NoError(t, hub.Start(context.Background()))
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		server.Close()
		_ = hub.Stop()
	})
	return hub, server
}

func dial(t *testing.T, hub *Hub, server *httptest.Server) *websocket.Conn {
	t.Helper()
	before := hub.ClientCount()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_BroadcastsDispatchedEvents(t *testing.T) {
	hub, server := startHub(t)
	first := dial(t, hub, server)
	second := dial(t, hub, server)

	d := dispatcher.NewDispatcher()
	hub.Register(d)

	evt := event.NewEvent(event.TypeApprovalApproved, "rec-1", map[string]interface{}{
		event.KeyStatus: "approved",
	})
	require.NoError(t, d.Dispatch(context.Background(), evt))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "approval.approved", msg.Type)
		assert.Equal(t, "rec-1", msg.RecordID)
		assert.Equal(t, "approved", msg.Status)
		assert.False(t, msg.Timestamp.IsZero())
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, hub, server)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHubDropsEvents(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	err := hub.Publish(Message{Type: "approval.created"})
	assert.ErrorIs(t, err, ErrHubStopped)

	evt := event.NewEvent(event.TypeApprovalCreated, "rec-1", nil)
	assert.NoError(t, hub.HandleEvent(context.Background(), evt))
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, hub, server)

	require.NoError(t, hub.Stop())
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	assert.NoError(t, hub.Stop(), "second stop is a no-op")
}

func TestHub_StartTwice(t *testing.T) {
	hub, _ := startHub(t)
	assert.Error(t, hub.Start(context.Background()))
	assert.Equal(t, "realtime-hub", hub.Name())
}
