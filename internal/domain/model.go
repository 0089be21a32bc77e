package domain

import "strconv"

// DocumentInput is a single document handed to the intake pipeline:
// raw bytes plus the declared format and a stable identifier.
type DocumentInput struct {
	DocumentID string
	FileName   string
	Format     string
	Data       []byte
}

// SegmentMetadata locates a segment inside its source document.
type SegmentMetadata struct {
	FileName string
	Section  string
	Position int
}

// Segment is the atomic unit of indexing and retrieval: a chunk of
// document text with its position and provenance.
type Segment struct {
	DocumentID   string
	SegmentIndex int
	Text         string
	Metadata     SegmentMetadata
}

// Key returns the identity used to deduplicate segments across
// repeated ingestion of the same document.
func (s Segment) Key() string {
	return s.DocumentID + ":" + strconv.Itoa(s.SegmentIndex)
}

// RankedSegment is a retrieval hit with its cosine similarity score.
type RankedSegment struct {
	Segment Segment
	Score   float64
}

// Answer is the terminal result of a question pipeline.
type Answer struct {
	Text    string
	Sources []RankedSegment
}

// Turn is one completed exchange kept in the conversation state.
type Turn struct {
	Question string
	Answer   string
	Sources  []RankedSegment
}

// IngestResult reports the outcome of indexing one document.
type IngestResult struct {
	DocumentID   string
	FileName     string
	SegmentCount int
	Summary      string
}

// IngestFailure names a document that could not be ingested, alongside
// the stage that rejected it.
type IngestFailure struct {
	DocumentID string
	FileName   string
	Stage      string
	Err        error
}

// BatchReport aggregates per-document outcomes of one intake batch.
// A failed document never aborts its siblings.
type BatchReport struct {
	Succeeded []IngestResult
	Failed    []IngestFailure
}

// Stats describes the current contents of the vector index.
type Stats struct {
	SegmentCount  int
	DocumentCount int
}
