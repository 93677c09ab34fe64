// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/now-showing/models"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	ev := models.Event{Kind: models.EventShowing, Value: "post-1"}
	hub.Publish(ev)

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got models.Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, ev, got)
	}
}

func TestHubForgetsClosedDisplays(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing afterwards must not panic on a closed channel
	hub.Publish(models.Event{Kind: models.EventVote, Value: "post-1"})
}

func TestHubDropsUnresponsiveDisplays(t *testing.T) {
	hub := NewHub()
	hub.pingPeriod = time.Hour
	hub.pongWait = 300 * time.Millisecond
	srv := httptest.NewServer(hub)
	defer srv.Close()

	// Never reads, so never answers a ping
	dial(t, srv)
	waitForClients(t, hub, 1)
	waitForClients(t, hub, 0)
}

func TestHubKeepsDisplaysThatAnswerPings(t *testing.T) {
	hub := NewHub()
	hub.pingPeriod = 20 * time.Millisecond
	hub.pongWait = 100 * time.Millisecond
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	go func() {
		// Reading lets the default ping handler reply with a pong
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	waitForClients(t, hub, 1)

	assert.Never(t, func() bool { return hub.Clients() == 0 }, 500*time.Millisecond, 20*time.Millisecond)
}
