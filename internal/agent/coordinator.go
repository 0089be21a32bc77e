package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docqa/internal/bus"
	"docqa/internal/domain"
	"docqa/internal/index"
)

// Coordinator is the only entry point exposed to the UI layer. Each
// call allocates a fresh correlation id, emits the first message of
// its pipeline and waits for the terminal message carrying the same
// id. Concurrent calls never conflate: terminals are matched to
// callers strictly by correlation id, never by arrival order.
type Coordinator struct {
	bus   *bus.Bus
	index domain.VectorIndex
	topK  int
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[string]chan bus.Message

	turnsMu sync.RWMutex
	turns   []domain.Turn
}

func NewCoordinator(b *bus.Bus, idx domain.VectorIndex, topK int, log zerolog.Logger) *Coordinator {
	if topK <= 0 {
		topK = 5
	}
	return &Coordinator{
		bus:     b,
		index:   idx,
		topK:    topK,
		log:     log.With().Str("component", "coordinator").Logger(),
		pending: make(map[string]chan bus.Message),
	}
}

// Subscriptions lists the terminal message types routed back to callers.
func (c *Coordinator) Subscriptions() []bus.MessageType {
	return []bus.MessageType{
		bus.IngestionComplete,
		bus.IngestionFailed,
		bus.RetrievalEmpty,
		bus.LLMResponse,
		bus.LLMFailed,
	}
}

// Handle routes a terminal message to the caller waiting on its
// correlation id. A terminal whose caller already abandoned the wait
// is dropped with a warning; that is the documented timeout behavior,
// not an error.
func (c *Coordinator) Handle(_ context.Context, msg bus.Message) (*bus.Message, error) {
	c.mu.Lock()
	ch, ok := c.pending[msg.CorrelationID]
	c.mu.Unlock()
	if !ok {
		c.log.Warn().
			Str("correlation_id", msg.CorrelationID).
			Str("type", string(msg.Type)).
			Msg("terminal message for abandoned pipeline")
		return nil, nil
	}
	select {
	case ch <- msg:
	default:
		return nil, fmt.Errorf("duplicate terminal for correlation id %s", msg.CorrelationID)
	}
	return nil, nil
}

// SubmitDocument runs the intake pipeline for one document and blocks
// until it is indexed or rejected, or ctx expires.
func (c *Coordinator) SubmitDocument(ctx context.Context, doc domain.DocumentInput) (domain.IngestResult, error) {
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	corrID, ch, err := c.await()
	if err != nil {
		return domain.IngestResult{}, err
	}
	defer c.release(corrID)

	msg := bus.New(bus.CoordinatorID, bus.IngestionID, bus.IngestionRequest, corrID, bus.IngestionRequestPayload{Document: doc})
	if res := c.bus.Publish(ctx, msg); !res.OK() {
		return domain.IngestResult{}, deliveryError(res)
	}

	select {
	case <-ctx.Done():
		return domain.IngestResult{}, ctx.Err()
	case terminal := <-ch:
		switch payload := terminal.Payload.(type) {
		case bus.IngestionCompletePayload:
			return domain.IngestResult{
				DocumentID:   payload.DocumentID,
				FileName:     payload.FileName,
				SegmentCount: payload.Indexed,
				Summary:      payload.Summary,
			}, nil
		case bus.IngestionFailedPayload:
			return domain.IngestResult{}, fmt.Errorf("ingest %s failed at %s: %w", payload.FileName, payload.Stage, payload.Err)
		default:
			return domain.IngestResult{}, fmt.Errorf("unexpected terminal %s for intake pipeline", terminal.Type)
		}
	}
}

// SubmitBatch ingests each document independently. A failed document
// is reported alongside the successes and never aborts its siblings.
func (c *Coordinator) SubmitBatch(ctx context.Context, docs []domain.DocumentInput) domain.BatchReport {
	var report domain.BatchReport
	for _, doc := range docs {
		result, err := c.SubmitDocument(ctx, doc)
		if err != nil {
			report.Failed = append(report.Failed, domain.IngestFailure{
				DocumentID: doc.DocumentID,
				FileName:   doc.FileName,
				Stage:      "ingest",
				Err:        err,
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, result)
	}
	return report
}

// Ask runs the query pipeline and blocks until the answer terminal
// arrives or ctx expires. An empty index surfaces as
// index.ErrEmptyIndex. A completion failure still returns the
// retrieved sources alongside the error.
func (c *Coordinator) Ask(ctx context.Context, question string) (domain.Answer, error) {
	corrID, ch, err := c.await()
	if err != nil {
		return domain.Answer{}, err
	}
	defer c.release(corrID)

	msg := bus.New(bus.CoordinatorID, bus.RetrievalID, bus.RetrievalRequest, corrID, bus.RetrievalRequestPayload{
		QueryText: question,
		TopK:      c.topK,
	})
	if res := c.bus.Publish(ctx, msg); !res.OK() {
		return domain.Answer{}, deliveryError(res)
	}

	select {
	case <-ctx.Done():
		return domain.Answer{}, ctx.Err()
	case terminal := <-ch:
		switch payload := terminal.Payload.(type) {
		case bus.LLMResponsePayload:
			answer := domain.Answer{Text: payload.Answer, Sources: payload.Sources}
			c.appendTurn(domain.Turn{Question: question, Answer: payload.Answer, Sources: payload.Sources})
			return answer, nil
		case bus.RetrievalEmptyPayload:
			return domain.Answer{}, index.ErrEmptyIndex
		case bus.LLMFailedPayload:
			return domain.Answer{Sources: payload.Sources}, fmt.Errorf("query failed at %s: %w", payload.Stage, payload.Err)
		default:
			return domain.Answer{}, fmt.Errorf("unexpected terminal %s for query pipeline", terminal.Type)
		}
	}
}

// Stats reports the current index contents.
func (c *Coordinator) Stats() domain.Stats {
	return c.index.Stats()
}

// Turns returns a copy of the conversation so far. Implements
// domain.History for the response stage.
func (c *Coordinator) Turns() []domain.Turn {
	c.turnsMu.RLock()
	defer c.turnsMu.RUnlock()
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Coordinator) appendTurn(turn domain.Turn) {
	c.turnsMu.Lock()
	c.turns = append(c.turns, turn)
	c.turnsMu.Unlock()
}

// await allocates a correlation id and its terminal channel. A live id
// colliding with a new one would be a correlation reuse, which the
// protocol forbids.
func (c *Coordinator) await() (string, chan bus.Message, error) {
	corrID := uuid.NewString()
	ch := make(chan bus.Message, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[corrID]; exists {
		return "", nil, fmt.Errorf("correlation id %s already in flight", corrID)
	}
	c.pending[corrID] = ch
	return corrID, ch, nil
}

func (c *Coordinator) release(corrID string) {
	c.mu.Lock()
	delete(c.pending, corrID)
	c.mu.Unlock()
}

func deliveryError(res bus.DeliveryResult) error {
	if res.Err != nil {
		return fmt.Errorf("pipeline delivery to %s: %s: %w", res.Receiver, res.Status, res.Err)
	}
	return fmt.Errorf("pipeline delivery to %s: %s", res.Receiver, res.Status)
}
