package usecase

import (
	"context"

	"hippocampus/apperror"
	"hippocampus/utils"

	"go.uber.org/zap"
)

const (
	DeleteStatusSuccess  = "success"
	DeleteStatusNotFound = "not_found"
)

// DeleteOutcome reports what a delete did. A missing row is an outcome, not an error.
type DeleteOutcome struct {
	DocID  string
	Status string
}

func (o DeleteOutcome) Deleted() bool {
	return o.Status == DeleteStatusSuccess
}

// Delete removes the vector entry scoped to the owner, then the database row.
// A vector failure stops before the database is touched. A database failure
// after the vector delete is a storage failure and the vector entry stays gone.
func (s *RecordService) Delete(ctx context.Context, ownerID, docID string) (DeleteOutcome, error) {
	if ownerID == "" {
		return DeleteOutcome{}, apperror.Auth("Authentication required")
	}
	if !utils.ValidDocID(docID) {
		return DeleteOutcome{}, apperror.Validation("Invalid document ID").With("doc_id", docID)
	}

	log := utils.Logger.With(
		zap.String("user_id", ownerID),
		zap.String("doc_id", docID),
		zap.String("kind", string(s.Kind)))

	if err := s.Vectors.DeleteByFilter(ctx, s.ownerDocFilter(ownerID, docID)); err != nil {
		log.Error("vector delete failed", zap.Error(err))
		return DeleteOutcome{}, err
	}

	rec, err := s.Records.DeleteByDocID(ctx, ownerID, docID)
	if err != nil {
		log.Error("vector entry deleted but database delete failed", zap.Error(err))
		return DeleteOutcome{}, apperror.Storage(err, "Failed to delete "+s.kindLabel(), ownerID, docID).
			With("stage", "persist")
	}
	if rec == nil {
		log.Warn("no database row for doc_id")
		return DeleteOutcome{DocID: docID, Status: DeleteStatusNotFound}, nil
	}

	space := rec.Space
	if space == "" {
		space = utils.SpaceOrDefault(rec.Note)
	}
	s.decrementSpace(ctx, ownerID, space)
	utils.TrackRecordOperation(string(s.Kind), "delete")
	log.Info("record deleted")
	return DeleteOutcome{DocID: docID, Status: DeleteStatusSuccess}, nil
}
