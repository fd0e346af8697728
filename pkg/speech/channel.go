package speech

import (
	"context"
	"sync"
)

// ChannelRecognizer is a Recognizer driven by Push and End. It bridges an
// external transcript source (stdin, a mobile bridge, tests) into streams.
type ChannelRecognizer struct {
	mu        sync.Mutex
	available bool
	current   chan Event
	starts    int
}

func NewChannelRecognizer() *ChannelRecognizer {
	return &ChannelRecognizer{available: true}
}

func (c *ChannelRecognizer) SetAvailable(available bool) {
	c.mu.Lock()
	c.available = available
	c.mu.Unlock()
}

func (c *ChannelRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.available {
		return nil, ErrUnavailable
	}

	ch := make(chan Event, 16)
	c.current = ch
	c.starts++

	go func() {
		<-ctx.Done()
		c.end(ch)
	}()

	return ch, nil
}

// Push delivers ev to the open stream. It reports false when no stream is
// open or the stream buffer is full.
func (c *ChannelRecognizer) Push(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return false
	}
	select {
	case c.current <- ev:
		return true
	default:
		return false
	}
}

// End terminates the open stream the way a platform timeout would.
func (c *ChannelRecognizer) End() {
	c.mu.Lock()
	ch := c.current
	c.mu.Unlock()
	if ch != nil {
		c.end(ch)
	}
}

// Starts reports how many streams have been opened.
func (c *ChannelRecognizer) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// Listening reports whether a stream is open.
func (c *ChannelRecognizer) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *ChannelRecognizer) end(ch chan Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == ch {
		close(ch)
		c.current = nil
	}
}
