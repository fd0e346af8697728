package location

import "sync"

// Subscription is the handle returned by StartTracking. Readings arrive on C
// until Stop is called, after which C is closed.
type Subscription struct {
	C <-chan Reading

	once sync.Once
	stop func()
}

func newSubscription(c <-chan Reading, stop func()) *Subscription {
	return &Subscription{C: c, stop: stop}
}

// Stop cancels the subscription. Safe to call more than once.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.once.Do(s.stop)
}
