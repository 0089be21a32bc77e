// Package index holds embedded segments and answers top-k cosine
// similarity queries. The in-memory store is the default backend; a
// Qdrant-backed variant lives alongside it.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"docqa/internal/domain"
)

var (
	// ErrEmptyIndex signals a query against an index with no
	// segments. A normal user-visible condition, not a fault.
	ErrEmptyIndex = errors.New("no segments indexed")

	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

type entry struct {
	segment domain.Segment
	vector  []float64
}

// Memory is a brute-force cosine store. Writes are serialized; reads
// run concurrently with each other and see either all or none of a
// given append, never a half-written segment.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	seen      map[string]struct{}
	documents map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		seen:      make(map[string]struct{}),
		documents: make(map[string]struct{}),
	}
}

// Append adds (segment, vector) pairs. Segments already present under
// the same (document id, segment index) are skipped, so re-ingesting a
// document never duplicates entries. Returns how many were added.
func (m *Memory) Append(segments []domain.Segment, vectors [][]float64) (int, error) {
	if len(segments) != len(vectors) {
		return 0, errors.New("segments and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for i, seg := range segments {
		vec := vectors[i]
		if m.dimension == 0 {
			m.dimension = len(vec)
		}
		if len(vec) != m.dimension {
			return added, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vec), m.dimension)
		}
		key := seg.Key()
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.documents[seg.DocumentID] = struct{}{}
		m.entries = append(m.entries, entry{segment: seg, vector: normalize(vec)})
		added++
	}
	return added, nil
}

// Search returns the topK highest-scoring segments by cosine
// similarity. Equal scores rank by insertion order, earliest first.
func (m *Memory) Search(vector []float64, topK int) ([]domain.RankedSegment, error) {
	if topK <= 0 {
		topK = 5
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), m.dimension)
	}
	query := normalize(vector)
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(m.entries))
	for i := range m.entries {
		scores[i] = scored{idx: i, score: dot(m.entries[i].vector, query)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].idx < scores[j].idx
	})
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.RankedSegment, 0, topK)
	for _, s := range scores[:topK] {
		out = append(out, domain.RankedSegment{Segment: m.entries[s.idx].segment, Score: s.score})
	}
	return out, nil
}

// Stats reports segment and document counts.
func (m *Memory) Stats() domain.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.Stats{
		SegmentCount:  len(m.entries),
		DocumentCount: len(m.documents),
	}
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(vec []float64) []float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
