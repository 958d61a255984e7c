package production

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/core"
)

func TestChannelPublisherDelivers(t *testing.T) {
	p := NewChannelPublisher(2)
	tr := Transition{Event: EvPowerOn, From: Snapshot{Top: Idle}, To: Snapshot{Top: Active}}
	md := core.TransitionMetadata{MachineID: "m", Transition: "Idle -> Active", Timestamp: time.Unix(1, 0)}

	require.NoError(t, p.Publish(context.Background(), tr, md))
	got := <-p.Transitions()
	assert.Equal(t, tr, got.Transition)
	assert.Equal(t, md, got.Metadata)
}

func TestChannelPublisherDropsWhenFull(t *testing.T) {
	p := NewChannelPublisher(1)
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, Transition{Event: EvPowerOn}, core.TransitionMetadata{}))
	require.NoError(t, p.Publish(ctx, Transition{Event: EvPowerOff}, core.TransitionMetadata{}))
	assert.Equal(t, uint64(1), p.Dropped())
	assert.Equal(t, EvPowerOn, (<-p.Transitions()).Transition.Event)
}

func TestChannelPublisherClose(t *testing.T) {
	p := NewChannelPublisher(1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	_, open := <-p.Transitions()
	assert.False(t, open)
	assert.ErrorIs(t, p.Publish(context.Background(), Transition{}, core.TransitionMetadata{}), ErrPublisherClosed)
}

func TestChannelPublisherCanceledContext(t *testing.T) {
	p := NewChannelPublisher(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, Transition{}, core.TransitionMetadata{}), context.Canceled)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Transition, core.TransitionMetadata) error {
	return f.err
}
func (f failingPublisher) Close() error { return f.err }

func TestMultiPublisher(t *testing.T) {
	ch := NewChannelPublisher(1)
	boom := errors.New("boom")
	mp := MultiPublisher{failingPublisher{err: boom}, ch}

	err := mp.Publish(context.Background(), Transition{Event: EvFault}, core.TransitionMetadata{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, EvFault, (<-ch.Transitions()).Transition.Event, "later members still receive")

	assert.ErrorIs(t, mp.Close(), boom)
}

func TestRunnerPublishesToJournalAndChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	j := openTestJournal(t)
	ch := NewChannelPublisher(8)
	r := core.NewRunner(New(), core.WithPublisher(MultiPublisher{j, ch}), core.WithMachineID("cell"))
	require.NoError(t, r.Start(ctx))
	defer r.Stop()

	for _, ev := range []Event{EvPowerOn, EvStartLoader, EvFault} {
		_, err := r.Send(ctx, ev)
		require.NoError(t, err)
	}

	entries, err := j.List(ctx, "cell")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, Snapshot{Top: Faulted}, entries[2].To)
	assert.Len(t, ch.Transitions(), 3)
}
