package extensibility

import (
	"errors"
	"sync"

	"github.com/comalice/safetychart"
)

// ErrSourceClosed is returned when emitting into a closed source.
var ErrSourceClosed = errors.New("event source closed")

// ChannelEventSource is an EventSource backed by a Go channel.
// Provides a simple way for collaborators such as sensors or a watchdog to
// feed events into a Runner.
type ChannelEventSource struct {
	mu      sync.Mutex
	ch      chan safetychart.Event
	done    chan struct{}
	closed  bool
	senders sync.WaitGroup
}

// NewChannelEventSource creates a source with the given buffer size.
func NewChannelEventSource(buffer int) *ChannelEventSource {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelEventSource{
		ch:   make(chan safetychart.Event, buffer),
		done: make(chan struct{}),
	}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan safetychart.Event {
	return s.ch
}

// Emit queues ev, blocking while the buffer is full. Close releases a
// blocked Emit with ErrSourceClosed.
func (s *ChannelEventSource) Emit(ev safetychart.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSourceClosed
	}
	s.senders.Add(1)
	s.mu.Unlock()
	defer s.senders.Done()

	select {
	case s.ch <- ev:
		return nil
	case <-s.done:
		return ErrSourceClosed
	}
}

// TryEmit queues ev without blocking and reports whether it was accepted.
func (s *ChannelEventSource) TryEmit(ev safetychart.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// Close releases blocked emitters, then closes the channel. Safe to call
// multiple times.
func (s *ChannelEventSource) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.senders.Wait()
	close(s.ch)
}
