package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"docqa/internal/domain"
)

// Qdrant is a minimal REST-backed index for deployments where the
// corpus should not live in process memory. Upserts are idempotent by
// point id, which carries the same (document id, segment index)
// dedupe contract as the memory backend.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu        sync.RWMutex
	dimension int
	count     int
	documents map[string]struct{}
	seen      map[string]struct{}
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		documents:  make(map[string]struct{}),
		seen:       make(map[string]struct{}),
	}
}

func (q *Qdrant) ensureCollection(dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.putJSON(fmt.Sprintf("%s/collections/%s", q.url, q.collection), body)
}

func (q *Qdrant) Append(segments []domain.Segment, vectors [][]float64) (int, error) {
	if len(segments) != len(vectors) {
		return 0, errors.New("segments and vectors length mismatch")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dimension == 0 && len(vectors) > 0 {
		q.dimension = len(vectors[0])
		if err := q.ensureCollection(q.dimension); err != nil {
			q.dimension = 0
			return 0, err
		}
	}
	var points []map[string]any
	added := 0
	for i, seg := range segments {
		if len(vectors[i]) != q.dimension {
			return 0, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vectors[i]), q.dimension)
		}
		key := seg.Key()
		if _, dup := q.seen[key]; dup {
			continue
		}
		points = append(points, map[string]any{
			"id":     key,
			"vector": normalize(vectors[i]),
			"payload": map[string]any{
				"document_id":   seg.DocumentID,
				"segment_index": seg.SegmentIndex,
				"text":          seg.Text,
				"file_name":     seg.Metadata.FileName,
				"section":       seg.Metadata.Section,
				"position":      seg.Metadata.Position,
			},
		})
		added++
	}
	if len(points) == 0 {
		return 0, nil
	}
	body := map[string]any{"points": points}
	if err := q.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection), body); err != nil {
		return 0, err
	}
	for _, seg := range segments {
		q.seen[seg.Key()] = struct{}{}
		q.documents[seg.DocumentID] = struct{}{}
	}
	q.count += added
	return added, nil
}

func (q *Qdrant) Search(vector []float64, topK int) ([]domain.RankedSegment, error) {
	if topK <= 0 {
		topK = 5
	}
	q.mu.RLock()
	empty := q.count == 0
	q.mu.RUnlock()
	if empty {
		return nil, ErrEmptyIndex
	}
	req := map[string]any{
		"vector":       normalize(vector),
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.postJSON(fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.RankedSegment, 0, len(resp.Result))
	for _, r := range resp.Result {
		seg := domain.Segment{}
		if v, ok := r.Payload["document_id"].(string); ok {
			seg.DocumentID = v
		}
		if v, ok := r.Payload["segment_index"].(float64); ok {
			seg.SegmentIndex = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			seg.Text = v
		}
		if v, ok := r.Payload["file_name"].(string); ok {
			seg.Metadata.FileName = v
		}
		if v, ok := r.Payload["section"].(string); ok {
			seg.Metadata.Section = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			seg.Metadata.Position = int(v)
		}
		results = append(results, domain.RankedSegment{Segment: seg, Score: r.Score})
	}
	return results, nil
}

func (q *Qdrant) Stats() domain.Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return domain.Stats{
		SegmentCount:  q.count,
		DocumentCount: len(q.documents),
	}
}

func (q *Qdrant) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (q *Qdrant) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
