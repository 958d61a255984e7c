package production

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/core"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// PublishedTransition is what a ChannelPublisher delivers.
type PublishedTransition struct {
	Transition safetychart.Transition  `json:"transition"`
	Metadata   core.TransitionMetadata `json:"metadata"`
}

// ChannelPublisher delivers transitions on a buffered channel. When the
// buffer is full the transition is dropped and counted.
type ChannelPublisher struct {
	mu      sync.Mutex
	ch      chan PublishedTransition
	closed  bool
	dropped uint64
}

var _ core.EventPublisher = (*ChannelPublisher)(nil)

// NewChannelPublisher creates a publisher with a buffer of the given size.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelPublisher{ch: make(chan PublishedTransition, buffer)}
}

// Publish enqueues t without blocking.
func (p *ChannelPublisher) Publish(ctx context.Context, t safetychart.Transition, md core.TransitionMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.ch <- PublishedTransition{Transition: t, Metadata: md}:
	default:
		p.dropped++
	}
	return nil
}

// Transitions returns the delivery channel. It is closed by Close.
func (p *ChannelPublisher) Transitions() <-chan PublishedTransition { return p.ch }

// Dropped reports how many transitions were discarded on a full buffer.
func (p *ChannelPublisher) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close closes the delivery channel. Calling it twice is safe.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// MultiPublisher publishes to every member and joins their errors.
type MultiPublisher []core.EventPublisher

var _ core.EventPublisher = MultiPublisher(nil)

func (m MultiPublisher) Publish(ctx context.Context, t safetychart.Transition, md core.TransitionMetadata) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, t, md))
	}
	return err
}

func (m MultiPublisher) Close() error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Close())
	}
	return err
}
