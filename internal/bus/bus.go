package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Handler is the capability every agent implements: accept a message,
// return zero or one follow-up messages. A returned message is
// published by the bus itself, which is what chains pipeline hops
// without agents holding bus references.
type Handler interface {
	Handle(ctx context.Context, msg Message) (*Message, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg Message) (*Message, error)

func (f HandlerFunc) Handle(ctx context.Context, msg Message) (*Message, error) {
	return f(ctx, msg)
}

// DeliveryStatus classifies the outcome of one publish call.
type DeliveryStatus int

const (
	Delivered DeliveryStatus = iota
	NoSubscriber
	ProtocolViolation
	HandlerFailed
)

func (s DeliveryStatus) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case NoSubscriber:
		return "no subscriber"
	case ProtocolViolation:
		return "protocol violation"
	case HandlerFailed:
		return "handler failed"
	}
	return "unknown"
}

// DeliveryResult reports where a publish chain stopped. For multi-hop
// chains the result describes the first hop that did not complete; a
// fully drained chain reports Delivered.
type DeliveryResult struct {
	Status   DeliveryStatus
	Receiver AgentID
	Err      error
}

func (r DeliveryResult) OK() bool { return r.Status == Delivered }

type subscription struct {
	handler Handler
	types   map[MessageType]struct{}
}

// Bus is the process-wide registry mapping agent ids to handlers.
// Delivery is synchronous: Publish invokes the receiver's handler
// inline and recursively publishes any follow-up message it returns.
// The bus keeps no message history; correlation lives entirely inside
// the envelope.
type Bus struct {
	mu   sync.RWMutex
	subs map[AgentID]subscription
	log  zerolog.Logger
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[AgentID]subscription),
		log:  log.With().Str("component", "bus").Logger(),
	}
}

// Register subscribes an agent to the given message types. Registering
// an id twice replaces the previous subscription.
func (b *Bus) Register(id AgentID, handler Handler, types ...MessageType) {
	set := make(map[MessageType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	b.mu.Lock()
	b.subs[id] = subscription{handler: handler, types: set}
	b.mu.Unlock()
}

// Publish delivers msg to its receiver and drains the resulting chain
// of follow-up messages. A message whose type the receiver never
// subscribed to is a protocol violation: reported and logged, never
// silently dropped.
func (b *Bus) Publish(ctx context.Context, msg Message) DeliveryResult {
	for {
		b.mu.RLock()
		sub, ok := b.subs[msg.Receiver]
		b.mu.RUnlock()

		if !ok {
			b.log.Error().
				Str("receiver", string(msg.Receiver)).
				Str("type", string(msg.Type)).
				Str("correlation_id", msg.CorrelationID).
				Msg("no subscriber for receiver")
			return DeliveryResult{Status: NoSubscriber, Receiver: msg.Receiver}
		}
		if _, subscribed := sub.types[msg.Type]; !subscribed {
			err := fmt.Errorf("agent %s not subscribed to %s", msg.Receiver, msg.Type)
			b.log.Error().
				Str("receiver", string(msg.Receiver)).
				Str("type", string(msg.Type)).
				Str("correlation_id", msg.CorrelationID).
				Msg("protocol violation")
			return DeliveryResult{Status: ProtocolViolation, Receiver: msg.Receiver, Err: err}
		}

		next, err := sub.handler.Handle(ctx, msg)
		if err != nil {
			b.log.Error().
				Err(err).
				Str("receiver", string(msg.Receiver)).
				Str("type", string(msg.Type)).
				Str("correlation_id", msg.CorrelationID).
				Msg("handler failed")
			return DeliveryResult{Status: HandlerFailed, Receiver: msg.Receiver, Err: err}
		}
		if next == nil {
			return DeliveryResult{Status: Delivered, Receiver: msg.Receiver}
		}
		msg = *next
	}
}
