package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *Bus {
	return NewBus(zerolog.Nop())
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribed handler", func(t *testing.T) {
		b := newTestBus()
		var got Message
		b.Register(RetrievalID, HandlerFunc(func(_ context.Context, msg Message) (*Message, error) {
			got = msg
			return nil, nil
		}), RetrievalRequest)

		msg := New(CoordinatorID, RetrievalID, RetrievalRequest, "corr-1", RetrievalRequestPayload{QueryText: "q"})
		res := b.Publish(ctx, msg)

		require.True(t, res.OK())
		assert.Equal(t, Delivered, res.Status)
		assert.Equal(t, "corr-1", got.CorrelationID)
		assert.Equal(t, CoordinatorID, got.Sender)
	})

	t.Run("reports missing subscriber", func(t *testing.T) {
		b := newTestBus()
		res := b.Publish(ctx, New(CoordinatorID, RetrievalID, RetrievalRequest, "corr-1", nil))
		assert.Equal(t, NoSubscriber, res.Status)
		assert.Equal(t, RetrievalID, res.Receiver)
	})

	t.Run("reports unsubscribed type as protocol violation", func(t *testing.T) {
		b := newTestBus()
		b.Register(RetrievalID, HandlerFunc(func(_ context.Context, _ Message) (*Message, error) {
			t.Fatal("handler must not run on protocol violation")
			return nil, nil
		}), RetrievalRequest)

		res := b.Publish(ctx, New(CoordinatorID, RetrievalID, IngestionRequest, "corr-1", nil))
		assert.Equal(t, ProtocolViolation, res.Status)
		require.Error(t, res.Err)
	})

	t.Run("reports handler failure", func(t *testing.T) {
		b := newTestBus()
		boom := errors.New("boom")
		b.Register(RetrievalID, HandlerFunc(func(_ context.Context, _ Message) (*Message, error) {
			return nil, boom
		}), RetrievalRequest)

		res := b.Publish(ctx, New(CoordinatorID, RetrievalID, RetrievalRequest, "corr-1", nil))
		assert.Equal(t, HandlerFailed, res.Status)
		assert.ErrorIs(t, res.Err, boom)
	})

	t.Run("drains multi-hop chains", func(t *testing.T) {
		b := newTestBus()
		var order []AgentID

		b.Register(IngestionID, HandlerFunc(func(_ context.Context, msg Message) (*Message, error) {
			order = append(order, IngestionID)
			next := New(IngestionID, RetrievalID, IngestionComplete, msg.CorrelationID, nil)
			return &next, nil
		}), IngestionRequest)
		b.Register(RetrievalID, HandlerFunc(func(_ context.Context, msg Message) (*Message, error) {
			order = append(order, RetrievalID)
			next := New(RetrievalID, CoordinatorID, IngestionComplete, msg.CorrelationID, nil)
			return &next, nil
		}), IngestionComplete)
		b.Register(CoordinatorID, HandlerFunc(func(_ context.Context, msg Message) (*Message, error) {
			order = append(order, CoordinatorID)
			assert.Equal(t, "corr-7", msg.CorrelationID)
			return nil, nil
		}), IngestionComplete)

		res := b.Publish(ctx, New(CoordinatorID, IngestionID, IngestionRequest, "corr-7", nil))
		require.True(t, res.OK())
		assert.Equal(t, []AgentID{IngestionID, RetrievalID, CoordinatorID}, order)
	})

	t.Run("chain stops at first failing hop", func(t *testing.T) {
		b := newTestBus()
		b.Register(IngestionID, HandlerFunc(func(_ context.Context, msg Message) (*Message, error) {
			next := New(IngestionID, RetrievalID, RetrievalResult, msg.CorrelationID, nil)
			return &next, nil
		}), IngestionRequest)
		b.Register(RetrievalID, HandlerFunc(func(_ context.Context, _ Message) (*Message, error) {
			return nil, nil
		}), IngestionComplete)

		res := b.Publish(ctx, New(CoordinatorID, IngestionID, IngestionRequest, "corr-1", nil))
		assert.Equal(t, ProtocolViolation, res.Status)
		assert.Equal(t, RetrievalID, res.Receiver)
	})
}
