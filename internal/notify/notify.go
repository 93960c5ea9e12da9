// Package notify delivers value changes to subscribed callbacks.
package notify

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Notifier holds the current value and the ordered list of listeners.
// Delivery is synchronous, on the publishing goroutine, in subscription
// order. A replay and a Publish never interleave, so a new listener sees
// values in publication order. Listeners must not call Publish or Subscribe
// on the same Notifier.
type Notifier[T any] struct {
	deliver sync.Mutex

	mu      sync.Mutex
	current T
	nextID  uint64
	subs    []subscription[T]
}

// New returns a Notifier whose current value is initial.
func New[T any](initial T) *Notifier[T] {
	return &Notifier[T]{current: initial}
}

// Subscribe registers fn, calls it once with the current value and returns
// a func that removes it. Calling the returned func more than once is a
// no-op.
func (n *Notifier[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	n.deliver.Lock()
	defer n.deliver.Unlock()

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription[T]{id: id, fn: fn})
	current := n.current
	n.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier[T]) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish stores v as the current value and hands it to every listener.
func (n *Notifier[T]) Publish(v T) {
	n.deliver.Lock()
	defer n.deliver.Unlock()

	n.mu.Lock()
	n.current = v
	subs := n.subs
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Current returns the last published value.
func (n *Notifier[T]) Current() T {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Len reports the number of live subscriptions.
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
