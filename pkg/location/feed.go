package location

import (
	"context"
	"sync"
	"time"

	"safetravel/internal/utils"
)

// Feed is a Sampler fed by Publish. Platform adapters (GPS daemons, mobile
// bridges, the CLI) push readings in; the engine consumes them through
// CurrentLocation and tracking subscriptions.
type Feed struct {
	mu          sync.Mutex
	enabled     bool
	permitted   bool
	maxAge      time.Duration
	latest      *Reading
	waiters     []chan Reading
	subscribers map[*subscriber]struct{}
	nowF        func() time.Time
}

type subscriber struct {
	opts TrackingOptions
	ch   chan Reading
	last *Reading
}

// NewFeed returns an enabled, permitted feed. Cached readings younger than
// maxAge satisfy CurrentLocation immediately.
func NewFeed(maxAge time.Duration) *Feed {
	return &Feed{
		enabled:     true,
		permitted:   true,
		maxAge:      maxAge,
		subscribers: make(map[*subscriber]struct{}),
		nowF:        time.Now,
	}
}

// SetEnabled toggles the device location service.
func (f *Feed) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

// SetPermitted records the runtime permission state.
func (f *Feed) SetPermitted(permitted bool) {
	f.mu.Lock()
	f.permitted = permitted
	f.mu.Unlock()
}

func (f *Feed) check() error {
	if !f.permitted {
		return ErrPermissionDenied
	}
	if !f.enabled {
		return ErrUnavailable
	}
	return nil
}

func (f *Feed) CurrentLocation(ctx context.Context) (*Reading, error) {
	f.mu.Lock()
	if err := f.check(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.latest != nil && f.nowF().Sub(f.latest.Timestamp) <= f.maxAge {
		r := *f.latest
		f.mu.Unlock()
		return &r, nil
	}
	waiter := make(chan Reading, 1)
	f.waiters = append(f.waiters, waiter)
	f.mu.Unlock()

	select {
	case r := <-waiter:
		return &r, nil
	case <-ctx.Done():
		f.removeWaiter(waiter)
		return nil, ErrUnavailable
	}
}

func (f *Feed) removeWaiter(waiter chan Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.waiters {
		if w == waiter {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

func (f *Feed) StartTracking(ctx context.Context, opts TrackingOptions) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(); err != nil {
		return nil, err
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{opts: opts, ch: make(chan Reading, buffer)}
	f.subscribers[sub] = struct{}{}

	return newSubscription(sub.ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subscribers[sub]; ok {
			delete(f.subscribers, sub)
			close(sub.ch)
		}
	}), nil
}

// Publish delivers a reading to pending CurrentLocation callers and to every
// subscription whose throttle admits it. A full subscriber buffer drops the
// reading for that subscriber.
func (f *Feed) Publish(r Reading) {
	if r.Timestamp.IsZero() {
		r.Timestamp = f.nowF()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.check() != nil {
		return
	}

	latest := r
	f.latest = &latest

	for _, w := range f.waiters {
		w <- r
	}
	f.waiters = nil

	for sub := range f.subscribers {
		if !sub.admits(r) {
			continue
		}
		select {
		case sub.ch <- r:
			last := r
			sub.last = &last
		default:
		}
	}
}

// Active reports the number of live tracking subscriptions.
func (f *Feed) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (s *subscriber) admits(r Reading) bool {
	if s.last == nil {
		return true
	}
	if r.Timestamp.Sub(s.last.Timestamp) < s.opts.MinInterval {
		return false
	}
	return utils.CalculateDistanceMeters(s.last.Latitude, s.last.Longitude, r.Latitude, r.Longitude) >= s.opts.MinDistanceMeters
}
