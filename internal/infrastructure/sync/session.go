package sync

import (
	"context"
	"sync"
)

// Target identifies one logical live query a view can observe: a user's
// conversation list, or one conversation's messages.
type Target struct {
	Kind string
	ID   string
}

const (
	TargetConversations = "conversations"
	TargetMessages      = "messages"
)

// OpenFunc establishes a subscription and blocks, delivering snapshots to
// the observer, until ctx is cancelled or the underlying stream fails. A
// return before cancellation means the subscription ended (usually after
// delivering an error); the session keeps the target registered so Resume or
// a fresh Start can re-establish it.
type OpenFunc func(ctx context.Context)

type subscription struct {
	open   OpenFunc
	cancel context.CancelFunc
	done   chan struct{}
	live   bool
}

// Session binds live subscriptions to one view's visible lifetime. It holds
// at most one active subscription per target: starting a target that is
// already live tears the old pump down first. Stop and Close are
// synchronous — they cancel the pump and wait for it to return, so no
// delivery can fire afterwards. Pause stops every pump but remembers the
// targets; Resume restarts each from scratch, re-delivering full current
// state (the store's subscriptions are not cursored).
//
// A session is driven by a single goroutine per view, matching the
// cooperative per-view scheduling of the callers; the mutex only guards
// against teardown racing a late command.
type Session struct {
	parent context.Context

	mu     sync.Mutex
	subs   map[Target]*subscription
	paused bool
	closed bool
}

func NewSession(ctx context.Context) *Session {
	return &Session{
		parent: ctx,
		subs:   make(map[Target]*subscription),
	}
}

// Start registers the target and launches its pump, replacing (and fully
// stopping) any previous subscription for the same target first. While the
// session is paused the target is registered but not launched until Resume.
func (s *Session) Start(target Target, open OpenFunc) {
	s.mu.Lock()
	previous := s.subs[target]
	delete(s.subs, target)
	s.mu.Unlock()

	stopSubscription(previous)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	sub := &subscription{open: open}
	s.subs[target] = sub
	if !s.paused {
		s.launch(sub)
	}
}

// Stop cancels the target's pump and waits for it to exit. After Stop
// returns, no further snapshot is delivered for the target.
func (s *Session) Stop(target Target) {
	s.mu.Lock()
	sub := s.subs[target]
	delete(s.subs, target)
	s.mu.Unlock()

	stopSubscription(sub)
}

// Pause stops every pump but keeps the targets registered. Called when the
// observing view loses visibility.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.paused || s.closed {
		s.mu.Unlock()
		return
	}
	s.paused = true
	stopping := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		stopping = append(stopping, sub)
	}
	s.mu.Unlock()

	for _, sub := range stopping {
		stopSubscription(sub)
	}
}

// Resume relaunches every registered target from scratch.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.closed {
		return
	}
	s.paused = false
	for _, sub := range s.subs {
		s.launch(sub)
	}
}

// Close stops everything and rejects further Starts.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[Target]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		stopSubscription(sub)
	}
}

// launch starts the pump goroutine. Caller holds s.mu.
func (s *Session) launch(sub *subscription) {
	ctx, cancel := context.WithCancel(s.parent)
	done := make(chan struct{})
	sub.cancel = cancel
	sub.done = done
	sub.live = true

	open := sub.open
	go func() {
		defer close(done)
		open(ctx)
	}()
}

func stopSubscription(sub *subscription) {
	if sub == nil || !sub.live {
		return
	}
	sub.cancel()
	<-sub.done
	sub.live = false
}
