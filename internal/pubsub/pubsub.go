package pubsub

import (
	"context"
	"reflect"

	"github.com/rs/zerolog/log"
)

type Event interface {
}

type Publisher[E Event] interface {
	Publish(E) error
	Chan() <-chan E
}

type Subscriber[E Event] interface {
	Name() string
	Consume(E) error
}

// BufferedPublisher queues events on a buffered channel. Publishing never
// blocks the producer: when the buffer is full the event is dropped, which
// is acceptable for snapshot-style events where the next one supersedes it.
type BufferedPublisher[E Event] struct {
	channel chan E
}

func NewBufferedPublisher[E Event](size int) *BufferedPublisher[E] {
	return &BufferedPublisher[E]{
		channel: make(chan E, size),
	}
}

func (p *BufferedPublisher[E]) Publish(e E) error {
	select {
	case p.channel <- e:
	default:
		log.Debug().Msg("Dropping event, subscriber buffer full")
	}
	return nil
}

func (p *BufferedPublisher[E]) Chan() <-chan E {
	return p.channel
}

// Close ends the stream; a bus listening on this publisher drops it once
// drained.
func (p *BufferedPublisher[E]) Close() {
	close(p.channel)
}

// Bus fans events from a set of publishers out to every subscriber, in
// order, on a single goroutine. Subscriber errors are logged and do not stop
// delivery.
type Bus[E Event] struct {
	publishers  []Publisher[E]
	subscribers []Subscriber[E]
}

func NewBus[E Event](publishers []Publisher[E], subscribers []Subscriber[E]) *Bus[E] {
	return &Bus[E]{
		publishers:  publishers,
		subscribers: subscribers,
	}
}

// Listen blocks dispatching events until the context is cancelled or every
// publisher channel has closed.
func (b *Bus[E]) Listen(ctx context.Context) error {
	cases := make([]reflect.SelectCase, 0, len(b.publishers)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, p := range b.publishers {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(p.Chan())})
	}

	for {
		chosen, value, ok := reflect.Select(cases)
		if chosen == 0 {
			return ctx.Err()
		}
		if !ok {
			cases = append(cases[:chosen], cases[chosen+1:]...)
			if len(cases) == 1 {
				return nil
			}
			continue
		}

		event := value.Interface().(E)
		for _, sub := range b.subscribers {
			if err := sub.Consume(event); err != nil {
				log.Error().Err(err).Msgf("Subscriber %s had an error while consuming event", sub.Name())
			}
		}
	}
}

// FuncSubscriber adapts a plain function into a Subscriber.
type FuncSubscriber[E Event] struct {
	name string
	fn   func(E) error
}

func NewFuncSubscriber[E Event](name string, fn func(E) error) *FuncSubscriber[E] {
	return &FuncSubscriber[E]{name: name, fn: fn}
}

func (s *FuncSubscriber[E]) Name() string {
	return s.name
}

func (s *FuncSubscriber[E]) Consume(e E) error {
	return s.fn(e)
}
