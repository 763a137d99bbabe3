package ws

import (
	"context"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// testClient builds a client with no connection for hub-level tests.
func testClient() *Client {
	return &Client{
		ID:    "test-client",
		Send:  make(chan ServerMessage, sendBufferSize),
		games: make(map[string]bool),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := testClient()
	c.hub = hub
	hub.Register(c)

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Send channel is closed on unregister
	select {
	case _, ok := <-c.Send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed")
	}
}

func TestHubBroadcastRespectsFilter(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	all := testClient()
	all.hub = hub
	hub.Register(all)

	filtered := testClient()
	filtered.ID = "filtered-client"
	filtered.hub = hub
	filtered.games = map[string]bool{"401671999": true}
	hub.Register(filtered)

	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast(&models.AnalysisPayload{GameID: "401671234"})

	select {
	case msg := <-all.Send:
		if msg.Type != MessageTypeAnalysis {
			t.Errorf("type = %s", msg.Type)
		}
		payload, ok := msg.Payload.(*models.AnalysisPayload)
		if !ok || payload.GameID != "401671234" {
			t.Errorf("payload = %+v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("unfiltered client never received broadcast")
	}

	select {
	case msg := <-filtered.Send:
		t.Errorf("filtered client received %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := testClient()
	slow.hub = hub
	slow.Send = make(chan ServerMessage) // unbuffered, never drained
	hub.Register(slow)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(&models.AnalysisPayload{GameID: "401671234"})

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := testClient()
	c.hub = hub
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestWatchesGame(t *testing.T) {
	c := testClient()

	if !c.WatchesGame("401671234") {
		t.Error("empty filter should match every game")
	}

	c.handleMessage(ClientMessage{Type: MessageTypeSubscribe, Games: []string{"401671234"}})
	if !c.WatchesGame("401671234") {
		t.Error("subscribed game should match")
	}
	if c.WatchesGame("401671999") {
		t.Error("unsubscribed game should not match")
	}

	c.handleMessage(ClientMessage{Type: MessageTypeUnsubscribe})
	if !c.WatchesGame("401671999") {
		t.Error("unsubscribe should reset to all games")
	}
}

func TestUnknownMessageType(t *testing.T) {
	c := testClient()
	c.handleMessage(ClientMessage{Type: "bogus"})

	select {
	case msg := <-c.Send:
		if msg.Type != MessageTypeError {
			t.Errorf("type = %s, want error", msg.Type)
		}
	default:
		t.Error("expected error message")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
