package event

import (
	"sync"
	"testing"
)

func TestFeedDeliversInOrder(t *testing.T) {
	feed := NewFeed[int]()
	var got []int
	feed.Subscribe(func(v int) { got = append(got, v) })
	feed.Publish(1)
	feed.Publish(2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestFeedReplaysLatestOnSubscribe(t *testing.T) {
	feed := NewFeed[string]()
	feed.Publish("first")
	feed.Publish("second")
	var got []string
	feed.Subscribe(func(v string) { got = append(got, v) })
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only latest replayed, got %v", got)
	}
}

func TestFeedNoReplayBeforePublish(t *testing.T) {
	feed := NewFeed[int]()
	called := false
	feed.Subscribe(func(int) { called = true })
	if called {
		t.Fatalf("expected no delivery before first publish")
	}
}

func TestFeedUnsubscribe(t *testing.T) {
	feed := NewFeed[int]()
	count := 0
	unsub := feed.Subscribe(func(int) { count++ })
	other := 0
	feed.Subscribe(func(int) { other++ })
	feed.Publish(1)
	unsub()
	feed.Publish(2)
	if count != 1 {
		t.Fatalf("expected 1 delivery before unsubscribe, got %d", count)
	}
	if other != 2 {
		t.Fatalf("expected remaining subscriber to get 2, got %d", other)
	}
	if feed.Len() != 1 {
		t.Fatalf("expected 1 subscription, got %d", feed.Len())
	}
}

func TestFeedRecoversFromPanic(t *testing.T) {
	feed := NewFeed[int]()
	feed.Subscribe(func(int) { panic("boom") })
	delivered := false
	feed.Subscribe(func(int) { delivered = true })
	feed.Publish(1)
	if !delivered {
		t.Fatalf("expected delivery after panicking handler")
	}
}

func TestFeedConcurrentPublish(t *testing.T) {
	feed := NewFeed[int]()
	var mu sync.Mutex
	total := 0
	feed.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Publish(1)
		}()
	}
	wg.Wait()
	if total != 50 {
		t.Fatalf("expected 50, got %d", total)
	}
	if v, ok := feed.Latest(); !ok || v != 1 {
		t.Fatalf("unexpected latest: %v %v", v, ok)
	}
}
