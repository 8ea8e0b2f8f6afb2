package usecase

import (
	"context"
	"sort"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/utils"

	"go.uber.org/zap"
)

// CollectionsService serves the per-user tag summary. Sources are the record
// stores counted when a legacy summary has to be rebuilt.
type CollectionsService struct {
	Collections CollectionStore
	Sources     []RecordStore
}

func NewCollectionsService(collections CollectionStore, sources ...RecordStore) *CollectionsService {
	return &CollectionsService{Collections: collections, Sources: sources}
}

// List returns the owner's tags with their record counts. A summary holding
// legacy bare-string entries is recounted from the records and rewritten in
// the current shape.
func (s *CollectionsService) List(ctx context.Context, ownerID string) ([]model.TagCount, error) {
	if ownerID == "" {
		return nil, apperror.Auth("Authentication required")
	}

	summary, err := s.Collections.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !summary.HasLegacy() {
		return summary.Counts(), nil
	}

	counts, err := s.recount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.Collections.Replace(ctx, ownerID, counts); err != nil {
		return nil, err
	}

	utils.Logger.Info("migrated legacy collection summary",
		zap.String("user_id", ownerID),
		zap.Int("legacy_entries", len(summary.Collections)),
		zap.Int("collections", len(counts)))
	return counts, nil
}

func (s *CollectionsService) recount(ctx context.Context, ownerID string) ([]model.TagCount, error) {
	totals := make(map[string]int)
	for _, src := range s.Sources {
		bySpace, err := src.CountBySpace(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		for space, n := range bySpace {
			totals[space] += n
		}
	}

	counts := make([]model.TagCount, 0, len(totals))
	for name, n := range totals {
		if n > 0 {
			counts = append(counts, model.TagCount{Name: name, MemoryCount: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	return counts, nil
}
