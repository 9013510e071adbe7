package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubServer upgrades every request and registers the server side of the
// connection under the given attempt id, handing the Client back on a
// channel so the test can write from the "handler" side.
func hubServer(t *testing.T, hub *Hub, attemptID string) (*httptest.Server, chan *Client) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	clients := make(chan *Client, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		client := NewClient(conn)
		hub.Register(attemptID, client)
		clients <- client
	}))
	t.Cleanup(srv.Close)
	return srv, clients
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })
	return peer
}

func TestHubPublishAndReplyWritesAreSerialized(t *testing.T) {
	hub := NewHub()
	srv, clients := hubServer(t, hub, "attempt-1")

	peer := dial(t, srv)
	client := <-clients

	// Engine hooks publish through the hub while the read loop replies on
	// the same connection. Both paths must share one writer.
	const perSide = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			hub.Publish("attempt-1", SectionExpiredEvent{Event: EventSectionExpired, SectionID: "s1"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			client.Send(PongResponse{Event: EventPong})
		}
	}()

	expired, pongs := 0, 0
	for expired+pongs < 2*perSide {
		var msg struct {
			Event Event `json:"event"`
		}
		require.NoError(t, peer.ReadJSON(&msg))
		switch msg.Event {
		case EventSectionExpired:
			expired++
		case EventPong:
			pongs++
		default:
			t.Fatalf("unexpected event %q", msg.Event)
		}
	}
	wg.Wait()

	assert.Equal(t, perSide, expired)
	assert.Equal(t, perSide, pongs)
}

func TestHubNewerConnectionReplacesOlder(t *testing.T) {
	hub := NewHub()
	srv, clients := hubServer(t, hub, "attempt-1")

	first := dial(t, srv)
	<-clients
	second := dial(t, srv)
	<-clients

	hub.Publish("attempt-1", PongResponse{Event: EventPong})

	// Only the newer connection receives the publish.
	var msg struct {
		Event Event `json:"event"`
	}
	require.NoError(t, second.ReadJSON(&msg))
	assert.Equal(t, EventPong, msg.Event)

	// The older one was closed on replacement.
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
}

func TestHubPublishWithoutConnectionIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("unknown", PongResponse{Event: EventPong})
}
