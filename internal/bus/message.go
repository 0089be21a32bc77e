package bus

import (
	"time"

	"docqa/internal/domain"
)

// AgentID names a registered pipeline stage on the bus.
type AgentID string

const (
	CoordinatorID AgentID = "coordinator"
	IngestionID   AgentID = "ingestion"
	RetrievalID   AgentID = "retrieval"
	ResponseID    AgentID = "response"
)

// MessageType tags the payload of a message. The set is closed: every
// message on the bus carries exactly one of these.
type MessageType string

const (
	IngestionRequest  MessageType = "INGESTION_REQUEST"
	IngestionComplete MessageType = "INGESTION_COMPLETE"
	IngestionFailed   MessageType = "INGESTION_FAILED"
	RetrievalRequest  MessageType = "RETRIEVAL_REQUEST"
	RetrievalResult   MessageType = "RETRIEVAL_RESULT"
	RetrievalEmpty    MessageType = "RETRIEVAL_EMPTY"
	LLMResponse       MessageType = "LLM_RESPONSE"
	LLMFailed         MessageType = "LLM_FAILED"
)

// Message is the immutable envelope passed between agents. Agents
// never mutate a received message; each hop constructs a new one with
// the same correlation id.
type Message struct {
	Sender        AgentID
	Receiver      AgentID
	Type          MessageType
	CorrelationID string
	CreatedAt     time.Time
	Payload       any
}

// New builds a message envelope, stamping the creation time.
func New(sender, receiver AgentID, typ MessageType, correlationID string, payload any) Message {
	return Message{
		Sender:        sender,
		Receiver:      receiver,
		Type:          typ,
		CorrelationID: correlationID,
		CreatedAt:     time.Now(),
		Payload:       payload,
	}
}

// IngestionRequestPayload carries one document into the intake pipeline.
type IngestionRequestPayload struct {
	Document domain.DocumentInput
}

// IngestionCompletePayload is emitted twice per intake run: once from
// ingestion to retrieval carrying the segments to index, and once from
// retrieval to the coordinator as the pipeline terminal. Indexed is set
// only on the terminal hop.
type IngestionCompletePayload struct {
	DocumentID string
	FileName   string
	Segments   []domain.Segment
	Indexed    int
	Summary    string
}

// IngestionFailedPayload names the document a stage rejected.
type IngestionFailedPayload struct {
	DocumentID string
	FileName   string
	Stage      string
	Err        error
}

// RetrievalRequestPayload carries a question into the query pipeline.
type RetrievalRequestPayload struct {
	QueryText string
	TopK      int
}

// RetrievalResultPayload carries the ranked segments to the response stage.
type RetrievalResultPayload struct {
	QueryText string
	Ranked    []domain.RankedSegment
}

// RetrievalEmptyPayload is the terminal for a query against an index
// with no segments. A normal condition, not a fault.
type RetrievalEmptyPayload struct {
	QueryText string
}

// LLMResponsePayload is the terminal for a successful query pipeline.
type LLMResponsePayload struct {
	QueryText string
	Answer    string
	Sources   []domain.RankedSegment
}

// LLMFailedPayload is the terminal for a failed query pipeline. Sources
// already retrieved are preserved so partial progress is not lost.
type LLMFailedPayload struct {
	QueryText string
	Stage     string
	Err       error
	Sources   []domain.RankedSegment
}
