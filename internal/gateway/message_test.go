package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/omnigate/omnigate/internal/canonical"
)

func TestQueuePreservesOrderPerLane(t *testing.T) {
	q := newMessageQueue(QueueOptions{LaneBuffer: 16, MaxConcurrent: 4})

	var mu sync.Mutex
	got := make(map[string][]string)
	done := make(chan struct{}, 6)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := q.Init(ctx, func(_ context.Context, msg *canonical.Message) error {
		mu.Lock()
		got[msg.ChatID] = append(got[msg.ChatID], msg.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a1", "a2", "a3"} {
		if err := q.Enqueue(ctx, &canonical.Message{ID: id, ChatID: "chat-a", ChannelType: "discord", Instance: "main"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []string{"b1", "b2", "b3"} {
		if err := q.Enqueue(ctx, &canonical.Message{ID: id, ChatID: "chat-b", ChannelType: "discord", Instance: "main"}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 6; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for queue processing")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for chat, want := range map[string][]string{
		"chat-a": {"a1", "a2", "a3"},
		"chat-b": {"b1", "b2", "b3"},
	} {
		if len(got[chat]) != 3 {
			t.Fatalf("%s processed %d messages, want 3", chat, len(got[chat]))
		}
		for i := range want {
			if got[chat][i] != want[i] {
				t.Fatalf("%s order = %v, want %v", chat, got[chat], want)
			}
		}
	}
}

func TestLaneKeySeparatesInstances(t *testing.T) {
	a := laneKey(&canonical.Message{ChannelType: "discord", Instance: "main", ChatID: "c1"})
	b := laneKey(&canonical.Message{ChannelType: "discord", Instance: "alt", ChatID: "c1"})
	if a == b {
		t.Fatal("same chat on different instances must not share a lane")
	}
}
