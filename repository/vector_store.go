package repository

import (
	"context"
	"math"

	"hippocampus/model"

	"github.com/google/uuid"
)

// VectorMatch is one similarity hit with its payload.
type VectorMatch struct {
	DocID   string
	Score   float32
	Payload map[string]string
}

// VectorStore is the vector index holding every record in one collection.
// Tenant isolation lives entirely in the payload filter passed by callers.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, docID string, vector []float32, payload map[string]string) error
	Query(ctx context.Context, vector []float32, filter model.Filter, topK int) ([]VectorMatch, error)
	DeleteByFilter(ctx context.Context, filter model.Filter) error
	Health(ctx context.Context) error
	Close() error
}

// PointID derives the UUID a doc id is stored under.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
