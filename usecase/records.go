package usecase

import (
	"context"
	"strings"
	"time"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/repository"
	"hippocampus/utils"

	"go.uber.org/zap"
)

const (
	DefaultTopK = 10
	MaxTopK     = 100
)

// RecordService indexes, searches and deletes one kind of record. Bookmarks
// and notes each get their own instance over a separate database collection;
// both share the vector store.
type RecordService struct {
	Kind        model.Kind
	Records     RecordStore
	Vectors     repository.VectorStore
	Embedder    Embedder
	Collections CollectionStore
	TopK        int
	Now         func() time.Time
}

func NewRecordService(kind model.Kind, records RecordStore, vectors repository.VectorStore, embedder Embedder, collections CollectionStore) *RecordService {
	return &RecordService{
		Kind:        kind,
		Records:     records,
		Vectors:     vectors,
		Embedder:    embedder,
		Collections: collections,
		TopK:        DefaultTopK,
		Now:         time.Now,
	}
}

func (s *RecordService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RecordService) kindLabel() string {
	return strings.ToLower(string(s.Kind))
}

// List returns the owner's records, newest first.
func (s *RecordService) List(ctx context.Context, ownerID string) ([]model.Record, error) {
	if ownerID == "" {
		return nil, apperror.Auth("Authentication required")
	}
	records, err := s.Records.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ownerDocFilter selects exactly one vector entry of the owner. The kind
// clause keeps a doc_id sent to the other kind's route from touching it.
func (s *RecordService) ownerDocFilter(ownerID, docID string) model.Filter {
	return model.And(
		model.Eq(model.FieldNamespace, ownerID),
		model.Eq(model.FieldDocID, docID),
		model.Eq(model.FieldType, string(s.Kind)),
	)
}

func (s *RecordService) incrementSpace(ctx context.Context, ownerID, space string) {
	if s.Collections == nil {
		return
	}
	if err := s.Collections.Increment(ctx, ownerID, space); err != nil {
		utils.Logger.Warn("failed to increment collection count",
			zap.String("user_id", ownerID),
			zap.String("space", space),
			zap.Error(err))
	}
}

func (s *RecordService) decrementSpace(ctx context.Context, ownerID, space string) {
	if s.Collections == nil {
		return
	}
	if err := s.Collections.Decrement(ctx, ownerID, space); err != nil {
		utils.Logger.Warn("failed to decrement collection count",
			zap.String("user_id", ownerID),
			zap.String("space", space),
			zap.Error(err))
	}
}
