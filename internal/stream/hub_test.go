package stream

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("tours:tour-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("tours:tour-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubTopicIsolation(t *testing.T) {
	hub := NewHub(nil)
	tours := hub.Register("tours:tour-1")
	posts := hub.Register("posts")
	defer hub.Unregister(tours)
	defer hub.Unregister(posts)

	hub.Broadcast("posts", []byte("board update"))

	select {
	case <-tours.Send:
		t.Fatalf("tour client received board update")
	case msg := <-posts.Send:
		if string(msg) != "board update" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("reservations")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if topicFromChannel(ch) != "reservations" {
		t.Fatalf("unexpected topic")
	}
	if topicFromChannel("bad") != "" {
		t.Fatalf("expected empty topic")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("posts")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("reservations")
	defer hub.Unregister(ws)

	hub.Broadcast("reservations", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}
}

// Two hubs on the same redis stand in for two API instances: a broadcast
// on one must reach a subscriber registered on the other.
func TestHubRedisBridgesInstances(t *testing.T) {
	s := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)

	remote := hubB.Register("tours:tour-1")
	defer hubB.Unregister(remote)

	// give hubB's pattern subscription time to establish
	time.Sleep(20 * time.Millisecond)

	hubA.Broadcast("tours:tour-1", []byte("roster change"))

	select {
	case msg := <-remote.Send:
		if string(msg) != "roster change" {
			t.Fatalf("unexpected message on second instance")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for cross-instance message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("posts")
	defer hub.Unregister(clientNode)

	hub.Broadcast("posts", []byte("ping"))
}
