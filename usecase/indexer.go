package usecase

import (
	"context"
	"strings"
	"time"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/utils"

	"go.uber.org/zap"
)

// RecordInput is a validated submission. Link is only read for bookmarks.
type RecordInput struct {
	Title string
	Note  string
	Link  string
}

// assemble builds the record stored in both the vector payload and the
// database row. The note keeps its space marker as typed.
func (s *RecordService) assemble(ownerID string, in RecordInput, now time.Time) *model.Record {
	rec := &model.Record{
		DocID:     utils.GenerateDocID(ownerID, now),
		UserID:    ownerID,
		Namespace: ownerID,
		Type:      s.Kind,
		Title:     strings.TrimSpace(in.Title),
		Note:      in.Note,
		Date:      now.UTC().Format(time.RFC3339),
		Space:     utils.SpaceOrDefault(in.Note),
	}
	if s.Kind == model.KindBookmark {
		rec.SourceURL = strings.TrimSpace(in.Link)
		rec.SiteName = utils.ExtractSiteName(rec.SourceURL)
	}
	return rec
}

// embeddingInput is "title, body" plus ", site" for bookmarks, with the
// space marker removed from the body.
func embeddingInput(rec *model.Record) string {
	parts := []string{rec.Title}
	if body := strings.TrimSpace(utils.RemoveSpacePattern(rec.Note)); body != "" {
		parts = append(parts, body)
	}
	if rec.Type == model.KindBookmark && rec.SiteName != "" {
		parts = append(parts, rec.SiteName)
	}
	return strings.Join(parts, ", ")
}

// Save embeds and indexes a new record, then persists it. When the database
// write fails after the vector upsert, the vector entry is deleted again before
// the storage failure is returned.
func (s *RecordService) Save(ctx context.Context, ownerID string, in RecordInput) (*model.Record, error) {
	if ownerID == "" {
		return nil, apperror.Auth("Authentication required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("Title is required")
	}
	if s.Kind == model.KindBookmark && strings.TrimSpace(in.Link) == "" {
		return nil, apperror.Validation("Link is required")
	}

	rec := s.assemble(ownerID, in, s.now())
	log := utils.Logger.With(
		zap.String("user_id", ownerID),
		zap.String("doc_id", rec.DocID),
		zap.String("kind", string(s.Kind)))

	vector, err := s.Embedder.EmbedDocument(ctx, embeddingInput(rec))
	if err != nil {
		log.Error("failed to embed record", zap.Error(err))
		return nil, apperror.Storage(err, "Failed to index "+s.kindLabel(), ownerID, rec.DocID).
			With("stage", "embed")
	}

	if err := s.Vectors.Upsert(ctx, rec.DocID, vector, rec.Metadata()); err != nil {
		log.Error("failed to upsert vector", zap.Error(err))
		return nil, apperror.Storage(err, "Failed to index "+s.kindLabel(), ownerID, rec.DocID).
			With("stage", "upsert")
	}

	if err := s.Records.Insert(ctx, rec); err != nil {
		compensated := s.compensate(ctx, ownerID, rec.DocID)
		log.Error("failed to persist record after indexing",
			zap.Bool("vector_removed", compensated),
			zap.Error(err))
		return nil, apperror.Storage(err, "Failed to save "+s.kindLabel(), ownerID, rec.DocID).
			With("stage", "persist").
			With("vector_removed", compensated)
	}

	s.incrementSpace(ctx, ownerID, rec.Space)
	utils.TrackRecordOperation(string(s.Kind), "save")
	log.Info("record saved", zap.String("space", rec.Space))
	return rec, nil
}

// compensate removes a vector entry whose database row could not be written.
// It runs detached from the request so a cancelled client does not leave an
// orphan behind.
func (s *RecordService) compensate(ctx context.Context, ownerID, docID string) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := s.Vectors.DeleteByFilter(ctx, s.ownerDocFilter(ownerID, docID)); err != nil {
		utils.Logger.Error("compensating vector delete failed, vector entry is orphaned",
			zap.String("user_id", ownerID),
			zap.String("doc_id", docID),
			zap.Error(err))
		return false
	}
	return true
}

// Update re-tags, re-embeds and rewrites an existing record in place. The
// doc_id, creation date and bookmark link are kept.
func (s *RecordService) Update(ctx context.Context, ownerID, docID string, in RecordInput) (*model.Record, error) {
	if ownerID == "" {
		return nil, apperror.Auth("Authentication required")
	}
	if !utils.ValidDocID(docID) {
		return nil, apperror.Validation("Invalid document ID").With("doc_id", docID)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("Title is required")
	}

	existing, err := s.Records.FindByDocID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound(string(s.Kind)+" not found").With("doc_id", docID)
	}

	updated := *existing
	updated.Namespace = ownerID
	updated.Title = strings.TrimSpace(in.Title)
	updated.Note = in.Note
	updated.Space = utils.SpaceOrDefault(in.Note)
	updated.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	log := utils.Logger.With(zap.String("user_id", ownerID), zap.String("doc_id", docID))

	vector, err := s.Embedder.EmbedDocument(ctx, embeddingInput(&updated))
	if err != nil {
		return nil, apperror.Storage(err, "Failed to index "+s.kindLabel(), ownerID, docID).
			With("stage", "embed")
	}
	if err := s.Vectors.Upsert(ctx, docID, vector, updated.Metadata()); err != nil {
		return nil, apperror.Storage(err, "Failed to index "+s.kindLabel(), ownerID, docID).
			With("stage", "upsert")
	}

	matched, err := s.Records.Update(ctx, &updated)
	if err != nil {
		log.Error("vector entry updated but database update failed", zap.Error(err))
		return nil, apperror.Storage(err, "Failed to update "+s.kindLabel(), ownerID, docID).
			With("stage", "persist")
	}
	if !matched {
		// Deleted between the lookup and the update.
		s.compensate(ctx, ownerID, docID)
		return nil, apperror.NotFound(string(s.Kind)+" not found").With("doc_id", docID)
	}

	if updated.Space != existing.Space {
		s.decrementSpace(ctx, ownerID, existing.Space)
		s.incrementSpace(ctx, ownerID, updated.Space)
	}
	utils.TrackRecordOperation(string(s.Kind), "update")
	log.Info("record updated", zap.String("space", updated.Space))
	return &updated, nil
}
