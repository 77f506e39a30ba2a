package notify

import (
	"sync"
	"time"
)

// Notifier fans a debounced change signal out to callbacks and a channel.
type Notifier struct {
	debouncer *Debouncer

	mu     sync.RWMutex
	nextID int
	subs   map[int]func()
	ch     chan struct{}
}

// NewNotifier creates a Notifier with the given debounce window.
func NewNotifier(window time.Duration) *Notifier {
	return &Notifier{
		debouncer: NewDebouncer(window),
		subs:      make(map[int]func()),
		ch:        make(chan struct{}, 1),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// C receives one value per delivered notification; missed values are merged.
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// Notify schedules a debounced notification.
func (n *Notifier) Notify() {
	n.debouncer.Trigger(n.deliver)
}

// NotifyNow delivers immediately, absorbing any pending debounced call.
func (n *Notifier) NotifyNow() {
	n.debouncer.Cancel()
	n.deliver()
}

// Flush delivers a pending notification now.
func (n *Notifier) Flush() {
	n.debouncer.Flush()
}

// Close drops any pending notification.
func (n *Notifier) Close() {
	n.debouncer.Cancel()
}

func (n *Notifier) deliver() {
	n.mu.RLock()
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}

	select {
	case n.ch <- struct{}{}:
	default:
	}
}
