package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/bus"
	"docqa/internal/domain"
	"docqa/internal/index"
)

// Retrieval owns the vector index. It serves two message types:
// ingestion-complete (embed and append new segments) and retrieval
// requests (embed the query, rank by cosine similarity).
type Retrieval struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	retries  int
	backoff  time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	embedded map[string]struct{}
}

func NewRetrieval(embedder domain.Embedder, idx domain.VectorIndex, retries int, log zerolog.Logger) *Retrieval {
	if retries <= 0 {
		retries = 3
	}
	return &Retrieval{
		embedder: embedder,
		index:    idx,
		retries:  retries,
		backoff:  200 * time.Millisecond,
		log:      log.With().Str("component", "retrieval").Logger(),
		embedded: make(map[string]struct{}),
	}
}

// Subscriptions lists the message types this agent handles.
func (a *Retrieval) Subscriptions() []bus.MessageType {
	return []bus.MessageType{bus.IngestionComplete, bus.RetrievalRequest}
}

func (a *Retrieval) Handle(ctx context.Context, msg bus.Message) (*bus.Message, error) {
	switch payload := msg.Payload.(type) {
	case bus.IngestionCompletePayload:
		return a.indexSegments(ctx, msg, payload)
	case bus.RetrievalRequestPayload:
		return a.retrieve(ctx, msg, payload)
	default:
		return nil, fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Type)
	}
}

func (a *Retrieval) indexSegments(ctx context.Context, msg bus.Message, payload bus.IngestionCompletePayload) (*bus.Message, error) {
	var segments []domain.Segment
	var vectors [][]float64
	for _, seg := range payload.Segments {
		if a.alreadyEmbedded(seg.Key()) {
			continue
		}
		vec, err := a.embedWithRetry(ctx, seg.Text)
		if err != nil {
			a.log.Error().
				Err(err).
				Str("document_id", payload.DocumentID).
				Int("segment_index", seg.SegmentIndex).
				Msg("embedding failed")
			fail := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.IngestionFailed, msg.CorrelationID, bus.IngestionFailedPayload{
				DocumentID: payload.DocumentID,
				FileName:   payload.FileName,
				Stage:      "embedding",
				Err:        err,
			})
			return &fail, nil
		}
		segments = append(segments, seg)
		vectors = append(vectors, vec)
	}

	added, err := a.index.Append(segments, vectors)
	if err != nil {
		fail := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.IngestionFailed, msg.CorrelationID, bus.IngestionFailedPayload{
			DocumentID: payload.DocumentID,
			FileName:   payload.FileName,
			Stage:      "indexing",
			Err:        err,
		})
		return &fail, nil
	}
	a.markEmbedded(segments)

	a.log.Info().
		Str("document_id", payload.DocumentID).
		Int("indexed", added).
		Msg("segments indexed")

	done := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.IngestionComplete, msg.CorrelationID, bus.IngestionCompletePayload{
		DocumentID: payload.DocumentID,
		FileName:   payload.FileName,
		Indexed:    added,
		Summary:    payload.Summary,
	})
	return &done, nil
}

func (a *Retrieval) retrieve(ctx context.Context, msg bus.Message, payload bus.RetrievalRequestPayload) (*bus.Message, error) {
	vec, err := a.embedWithRetry(ctx, payload.QueryText)
	if err != nil {
		fail := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.LLMFailed, msg.CorrelationID, bus.LLMFailedPayload{
			QueryText: payload.QueryText,
			Stage:     "retrieval",
			Err:       err,
		})
		return &fail, nil
	}

	ranked, err := a.index.Search(vec, payload.TopK)
	if errors.Is(err, index.ErrEmptyIndex) {
		empty := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.RetrievalEmpty, msg.CorrelationID, bus.RetrievalEmptyPayload{
			QueryText: payload.QueryText,
		})
		return &empty, nil
	}
	if err != nil {
		fail := bus.New(bus.RetrievalID, bus.CoordinatorID, bus.LLMFailed, msg.CorrelationID, bus.LLMFailedPayload{
			QueryText: payload.QueryText,
			Stage:     "retrieval",
			Err:       err,
		})
		return &fail, nil
	}

	a.log.Debug().
		Str("query", payload.QueryText).
		Int("hits", len(ranked)).
		Msg("retrieval complete")

	next := bus.New(bus.RetrievalID, bus.ResponseID, bus.RetrievalResult, msg.CorrelationID, bus.RetrievalResultPayload{
		QueryText: payload.QueryText,
		Ranked:    ranked,
	})
	return &next, nil
}

// embedWithRetry bounds transient embedding failures with exponential
// backoff before surfacing them as a pipeline failure.
func (a *Retrieval) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	delay := a.backoff
	for attempt := 0; attempt < a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		vec, err := a.embedder.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", a.retries, lastErr)
}

func (a *Retrieval) alreadyEmbedded(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.embedded[key]
	return ok
}

func (a *Retrieval) markEmbedded(segments []domain.Segment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, seg := range segments {
		a.embedded[seg.Key()] = struct{}{}
	}
}
