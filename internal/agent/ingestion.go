// Package agent implements the pipeline stages wired onto the message
// bus: ingestion, retrieval, response generation and the coordinator
// that drives them.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docqa/internal/bus"
	"docqa/internal/domain"
)

// Ingestion turns raw document bytes into ordered text segments. It
// owns no state past the point of emission: produced segments belong
// to the index once the follow-up message leaves.
type Ingestion struct {
	parser     domain.Parser
	chunker    domain.Chunker
	summarizer domain.Summarizer
	log        zerolog.Logger
}

func NewIngestion(parser domain.Parser, chunker domain.Chunker, sum domain.Summarizer, log zerolog.Logger) *Ingestion {
	return &Ingestion{
		parser:     parser,
		chunker:    chunker,
		summarizer: sum,
		log:        log.With().Str("component", "ingestion").Logger(),
	}
}

// Subscriptions lists the message types this agent handles.
func (a *Ingestion) Subscriptions() []bus.MessageType {
	return []bus.MessageType{bus.IngestionRequest}
}

func (a *Ingestion) Handle(_ context.Context, msg bus.Message) (*bus.Message, error) {
	payload, ok := msg.Payload.(bus.IngestionRequestPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Type)
	}
	doc := payload.Document

	blocks, err := a.parser.Parse(doc.Data, doc.Format)
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("document_id", doc.DocumentID).
			Str("file_name", doc.FileName).
			Msg("parse failed")
		fail := bus.New(bus.IngestionID, bus.CoordinatorID, bus.IngestionFailed, msg.CorrelationID, bus.IngestionFailedPayload{
			DocumentID: doc.DocumentID,
			FileName:   doc.FileName,
			Stage:      "parse",
			Err:        err,
		})
		return &fail, nil
	}

	segments := a.chunker.Chunk(doc, blocks)
	for i := range segments {
		segments[i].Metadata.FileName = doc.FileName
	}
	if len(segments) == 0 {
		fail := bus.New(bus.IngestionID, bus.CoordinatorID, bus.IngestionFailed, msg.CorrelationID, bus.IngestionFailedPayload{
			DocumentID: doc.DocumentID,
			FileName:   doc.FileName,
			Stage:      "chunk",
			Err:        fmt.Errorf("document produced no segments"),
		})
		return &fail, nil
	}

	summary := ""
	if a.summarizer != nil {
		var all []byte
		for _, seg := range segments {
			all = append(all, seg.Text...)
			all = append(all, ' ')
		}
		if s, err := a.summarizer.Summarize(string(all), 3); err == nil {
			summary = s
		}
	}

	a.log.Info().
		Str("document_id", doc.DocumentID).
		Str("file_name", doc.FileName).
		Int("segments", len(segments)).
		Msg("document chunked")

	next := bus.New(bus.IngestionID, bus.RetrievalID, bus.IngestionComplete, msg.CorrelationID, bus.IngestionCompletePayload{
		DocumentID: doc.DocumentID,
		FileName:   doc.FileName,
		Segments:   segments,
		Summary:    summary,
	})
	return &next, nil
}
