package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docqa/internal/bus"
	"docqa/internal/domain"
	"docqa/internal/llm"
)

// Response builds the completion prompt from the ranked sources and
// prior conversation turns, calls the language-model collaborator and
// emits the terminal answer. It never touches the index.
type Response struct {
	completer domain.Completer
	history   domain.History
	log       zerolog.Logger
}

func NewResponse(completer domain.Completer, history domain.History, log zerolog.Logger) *Response {
	return &Response{
		completer: completer,
		history:   history,
		log:       log.With().Str("component", "response").Logger(),
	}
}

// Subscriptions lists the message types this agent handles.
func (a *Response) Subscriptions() []bus.MessageType {
	return []bus.MessageType{bus.RetrievalResult}
}

func (a *Response) Handle(ctx context.Context, msg bus.Message) (*bus.Message, error) {
	payload, ok := msg.Payload.(bus.RetrievalResultPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", msg.Payload, msg.Type)
	}

	var turns []domain.Turn
	if a.history != nil {
		turns = a.history.Turns()
	}
	prompt := llm.BuildPrompt(payload.QueryText, payload.Ranked, turns)

	answer, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.log.Error().
			Err(err).
			Str("query", payload.QueryText).
			Msg("completion failed")
		// Retrieval already succeeded; keep the sources with the failure.
		fail := bus.New(bus.ResponseID, bus.CoordinatorID, bus.LLMFailed, msg.CorrelationID, bus.LLMFailedPayload{
			QueryText: payload.QueryText,
			Stage:     "completion",
			Err:       err,
			Sources:   payload.Ranked,
		})
		return &fail, nil
	}

	a.log.Info().
		Str("query", payload.QueryText).
		Int("sources", len(payload.Ranked)).
		Msg("answer generated")

	done := bus.New(bus.ResponseID, bus.CoordinatorID, bus.LLMResponse, msg.CorrelationID, bus.LLMResponsePayload{
		QueryText: payload.QueryText,
		Answer:    answer,
		Sources:   payload.Ranked,
	})
	return &done, nil
}
