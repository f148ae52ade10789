package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	n int
}

type recordingSubscriber struct {
	mu   sync.Mutex
	seen []int
	fail bool
}

func (s *recordingSubscriber) Name() string { return "recorder" }

func (s *recordingSubscriber) Consume(e testEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, e.n)
	if s.fail {
		return errors.New("consume failed")
	}
	return nil
}

func (s *recordingSubscriber) events() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.seen...)
}

func TestBusDeliversInOrder(t *testing.T) {
	pub := NewBufferedPublisher[testEvent](8)
	sub := &recordingSubscriber{}
	bus := NewBus([]Publisher[testEvent]{pub}, []Subscriber[testEvent]{sub})

	done := make(chan error, 1)
	go func() { done <- bus.Listen(context.Background()) }()

	for i := 1; i <= 3; i++ {
		require.NoError(t, pub.Publish(testEvent{n: i}))
	}
	pub.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bus did not stop after publisher close")
	}
	assert.Equal(t, []int{1, 2, 3}, sub.events())
}

func TestBusStopsOnContextCancel(t *testing.T) {
	pub := NewBufferedPublisher[testEvent](1)
	bus := NewBus([]Publisher[testEvent]{pub}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Listen(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("bus did not stop on cancel")
	}
}

func TestPublishNeverBlocksWhenBufferFull(t *testing.T) {
	pub := NewBufferedPublisher[testEvent](1)
	require.NoError(t, pub.Publish(testEvent{n: 1}))

	finished := make(chan struct{})
	go func() {
		_ = pub.Publish(testEvent{n: 2})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestSubscriberErrorDoesNotStopDelivery(t *testing.T) {
	pub := NewBufferedPublisher[testEvent](4)
	failing := &recordingSubscriber{fail: true}
	healthy := &recordingSubscriber{}
	bus := NewBus([]Publisher[testEvent]{pub}, []Subscriber[testEvent]{failing, healthy})

	done := make(chan error, 1)
	go func() { done <- bus.Listen(context.Background()) }()

	require.NoError(t, pub.Publish(testEvent{n: 7}))
	pub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bus did not stop")
	}
	assert.Equal(t, []int{7}, failing.events())
	assert.Equal(t, []int{7}, healthy.events())
}

func TestFuncSubscriber(t *testing.T) {
	var got testEvent
	sub := NewFuncSubscriber("fn", func(e testEvent) error {
		got = e
		return nil
	})
	require.NoError(t, sub.Consume(testEvent{n: 9}))
	assert.Equal(t, 9, got.n)
	assert.Equal(t, "fn", sub.Name())
}
