package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxKeys bounds the suppression set so a long-running engine
// cannot grow it without limit.
const defaultMaxKeys = 50000

// SuppressorOption applies a configuration option to the Suppressor.
type SuppressorOption func(*Suppressor)

// WithMaxKeys sets the maximum number of suppression keys to keep.
// If maxKeys > 0: bounded mode with LIFO eviction.
// If maxKeys <= 0: unbounded mode (no eviction, no size limit).
func WithMaxKeys(maxKeys int) SuppressorOption {
	return func(s *Suppressor) {
		s.maxKeys = maxKeys
	}
}

// node represents a single entry in the eviction list
type node struct {
	key  string
	next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.key = ""
	n.next = nil
}

// Suppressor tracks notification keys that have already been dispatched so
// repeated engine decisions do not spam the same recipient. Bounded mode
// keeps a linked list with LIFO eviction and a sync.Pool for nodes;
// unbounded mode uses a plain map.
type Suppressor struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node
	maxKeys  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewSuppressor creates a suppression tracker with configuration options.
func NewSuppressor(opts ...SuppressorOption) *Suppressor {
	s := &Suppressor{
		maxKeys: defaultMaxKeys,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.seen = make(map[string]*node)
	if s.maxKeys > 0 {
		s.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return s
}

// SeenAndRecord atomically checks whether key was dispatched before and
// records it if not. Returns true if key was already seen.
func (s *Suppressor) SeenAndRecord(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return true
	}

	if s.maxKeys > 0 {
		if len(s.seen) >= s.maxKeys {
			s.evictOldest()
		}

		n := s.nodePool.Get().(*node)
		n.key = key
		n.next = s.head

		s.head = n
		s.seen[key] = n
	} else {
		s.seen[key] = nil
	}
	s.size.Add(1)
	return false
}

// Forget removes a key so the notification can be retried, used when a
// downstream delivery failed after the key was recorded.
func (s *Suppressor) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.seen[key]
	if !exists {
		return
	}
	delete(s.seen, key)
	s.size.Add(-1)

	if s.maxKeys <= 0 {
		return
	}

	if s.head == n {
		s.head = n.next
	} else {
		current := s.head
		for current != nil && current.next != n {
			current = current.next
		}
		if current != nil {
			current.next = n.next
		}
	}
	n.reset()
	s.nodePool.Put(n)
}

// evictOldest removes the least recently added key (tail of the list).
// Must be called with s.mu held.
func (s *Suppressor) evictOldest() {
	if len(s.seen) == 0 || s.head == nil {
		return
	}

	if s.head.next == nil {
		delete(s.seen, s.head.key)
		s.head.reset()
		s.nodePool.Put(s.head)
		s.head = nil
		s.size.Add(-1)
		return
	}

	var prev *node
	current := s.head
	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	delete(s.seen, current.key)
	current.reset()
	s.nodePool.Put(current)
	s.size.Add(-1)
}

// Size returns the current number of tracked keys.
func (s *Suppressor) Size() int64 {
	return s.size.Load()
}

// dedupingDispatcher wraps a Dispatcher and drops exact repeats.
type dedupingDispatcher struct {
	inner Dispatcher
	seen  *Suppressor
}

// Deduped wraps inner so that an identical message (same recipient, kind,
// decision reference, and body) is delivered at most once. Delivery
// failures release the key so the message can be retried.
func Deduped(inner Dispatcher, opts ...SuppressorOption) Dispatcher {
	return &dedupingDispatcher{
		inner: inner,
		seen:  NewSuppressor(opts...),
	}
}

// Notify forwards msg unless an identical message was already dispatched.
func (d *dedupingDispatcher) Notify(ctx context.Context, msg Message) error {
	key := msg.PlayerID + "|" + string(msg.Kind) + "|" + msg.Ref + "|" + msg.Body
	if d.seen.SeenAndRecord(key) {
		return nil
	}
	if err := d.inner.Notify(ctx, msg); err != nil {
		d.seen.Forget(key)
		return err
	}
	return nil
}
