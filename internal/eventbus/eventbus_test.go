package eventbus

import "testing"

func TestBus_PublishSubscribe(t *testing.T) {
	b := New[string]()
	sub := b.Subscribe()
	b.Publish("matched")
	if got := <-sub; got != "matched" {
		t.Fatalf("got %q", got)
	}
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after Close")
	}
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(i)
	}
	// Publisher never blocked; the buffer holds the first events.
	if got := <-sub; got != 0 {
		t.Fatalf("expected first event, got %d", got)
	}
	b.Unsubscribe(sub)
	b.Publish(99) // no subscriber, still non-blocking
}

func TestBus_SubscribeAfterClose(t *testing.T) {
	b := New[int]()
	b.Close()
	sub := b.Subscribe()
	if _, ok := <-sub; ok {
		t.Fatal("subscription after close should yield a closed channel")
	}
	b.Close() // idempotent
}
