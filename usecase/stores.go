package usecase

import (
	"context"

	"hippocampus/model"
)

// Embedder turns text into vectors. Stored passages and search queries use
// different embedding modes.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RecordStore persists one kind of record. Implemented by repository.RecordsRepo.
type RecordStore interface {
	Insert(ctx context.Context, rec *model.Record) error
	ListByUser(ctx context.Context, userID string) ([]model.Record, error)
	FindByDocID(ctx context.Context, userID, docID string) (*model.Record, error)
	Update(ctx context.Context, rec *model.Record) (bool, error)
	DeleteByDocID(ctx context.Context, userID, docID string) (*model.Record, error)
	CountBySpace(ctx context.Context, userID string) (map[string]int, error)
}

// CollectionStore maintains tag counts. Implemented by repository.CollectionsRepo.
type CollectionStore interface {
	Get(ctx context.Context, userID string) (*model.CollectionSummary, error)
	Replace(ctx context.Context, userID string, counts []model.TagCount) error
	Increment(ctx context.Context, userID, name string) error
	Decrement(ctx context.Context, userID, name string) error
}

type UserStore interface {
	UpsertUser(ctx context.Context, user *model.User) (bool, error)
	FindUser(ctx context.Context, userID string) (*model.User, error)
}
