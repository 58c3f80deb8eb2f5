// Package events provides the typed in-process event bus the dev server's
// watch loop is built on.
//
// This is intentionally not durable: it carries control-flow events inside
// a single process (file changed, build requested, build finished), nothing
// more.
package events

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Publish after the bus has been closed.
var ErrClosed = errors.New("event bus closed")

// Bus is a small typed publish/subscribe hub.
//
// Publish blocks until every subscriber has accepted the event or the
// context is canceled, which gives the watch loop natural backpressure:
// event producers cannot outrun the consumer's buffer unnoticed.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type]map[uint64]*subscriber
	nextID atomic.Uint64
	closed atomic.Bool
}

type subscriber struct {
	deliver func(ctx context.Context, evt any) error
	stop    func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscriber)}
}

// Subscribe registers a buffered subscription for events of concrete type T.
// The returned cancel func unsubscribes and closes the channel; it is safe
// to call more than once.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	if b.closed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	var unsubOnce sync.Once
	cancel := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
			b.mu.Unlock()
			closeCh()
		})
	}

	sub := &subscriber{
		deliver: func(ctx context.Context, evt any) error {
			select {
			case ch <- evt.(T):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		stop: closeCh,
	}

	b.mu.Lock()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub
	b.mu.Unlock()

	return ch, cancel
}

// Publish delivers evt to every subscriber of its concrete type.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if b.closed.Load() {
		return ErrClosed
	}

	eventType := reflect.TypeOf(evt)
	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subs[eventType]))
	for _, sub := range b.subs[eventType] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts the bus down: all subscription channels are closed and
// further publishes fail with ErrClosed.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, typeSubs := range b.subs {
		for _, sub := range typeSubs {
			sub.stop()
		}
	}
	b.subs = make(map[reflect.Type]map[uint64]*subscriber)
}
