package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/pkg/streaming"
)

func TestChannel_SynchronousDelivery(t *testing.T) {
	c := New()
	var got []string
	c.Subscribe(func(_ context.Context, env streaming.Envelope) { got = append(got, env.ID) })

	require.NoError(t, c.Publish(context.Background(), streaming.Envelope{ID: "a"}))
	assert.Equal(t, []string{"a"}, got, "delivered before Publish returns")
}

func TestChannel_Cancel(t *testing.T) {
	c := New()
	n := 0
	cancel := c.Subscribe(func(context.Context, streaming.Envelope) { n++ })
	require.NoError(t, c.Publish(context.Background(), streaming.Envelope{}))
	cancel()
	require.NoError(t, c.Publish(context.Background(), streaming.Envelope{}))
	assert.Equal(t, 1, n)
}

func TestChannel_Closed(t *testing.T) {
	c := New()
	c.Subscribe(func(context.Context, streaming.Envelope) { t.Fatal("delivered after close") })
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Publish(context.Background(), streaming.Envelope{}), ErrClosed)
}
