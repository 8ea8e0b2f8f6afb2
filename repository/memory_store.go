package repository

import (
	"context"
	"sort"
	"sync"

	"hippocampus/model"

	"github.com/m-mizutani/goerr/v2"
)

type memoryPoint struct {
	vector  []float32
	payload map[string]string
}

// MemoryStore is an in-process VectorStore with exact cosine search.
type MemoryStore struct {
	mu         sync.RWMutex
	dimensions int
	points     map[string]memoryPoint
}

func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{
		dimensions: dimensions,
		points:     make(map[string]memoryPoint),
	}
}

func (s *MemoryStore) EnsureCollection(context.Context) error {
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, docID string, vector []float32, payload map[string]string) error {
	if s.dimensions > 0 && len(vector) != s.dimensions {
		return goerr.New("vector dimension mismatch",
			goerr.V("expected", s.dimensions),
			goerr.V("actual", len(vector)))
	}

	p := memoryPoint{
		vector:  append([]float32(nil), vector...),
		payload: make(map[string]string, len(payload)),
	}
	for k, v := range payload {
		p.payload[k] = v
	}

	s.mu.Lock()
	s.points[PointID(docID)] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, filter model.Filter, topK int) ([]VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]VectorMatch, 0)
	for _, p := range s.points {
		if !filter.Match(p.payload) {
			continue
		}
		payload := make(map[string]string, len(p.payload))
		for k, v := range p.payload {
			payload[k] = v
		}
		matches = append(matches, VectorMatch{
			DocID:   p.payload[model.FieldDocID],
			Score:   cosineSimilarity(vector, p.vector),
			Payload: payload,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].DocID < matches[j].DocID
		}
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) DeleteByFilter(_ context.Context, filter model.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.points {
		if filter.Match(p.payload) {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored points.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
