package app

import (
	"sync"

	"quizdesk/internal/domain"
)

// AttemptFeed fans recorded attempts out to live subscribers (the admin attempt monitor).
type AttemptFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.AttemptView]struct{}
}

func NewAttemptFeed() *AttemptFeed {
	return &AttemptFeed{subscribers: make(map[chan domain.AttemptView]struct{})}
}

// Subscribe returns a channel that receives every attempt published after the call.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *AttemptFeed) Subscribe() (<-chan domain.AttemptView, func()) {
	ch := make(chan domain.AttemptView, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers attempt to all subscribers without blocking. A subscriber whose
// buffer is full loses its oldest pending attempt.
func (f *AttemptFeed) Publish(attempt domain.AttemptView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- attempt:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- attempt
		}
	}
}

// Subscribers reports the number of live subscribers.
func (f *AttemptFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
