package usecase

import (
	"context"
	"strings"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/utils"

	"go.uber.org/zap"
)

type SearchInput struct {
	Query  string
	Filter map[string]any
	TopK   int
}

// SearchHit is one match formatted for display.
type SearchHit struct {
	DocID    string
	Content  string
	Metadata map[string]string
	Score    float32
}

// Search validates the query before any embedding call, embeds it in query
// mode and returns matches of the service's kind. No matches is an empty
// result, not an error.
func (s *RecordService) Search(ctx context.Context, ownerID string, in SearchInput) ([]SearchHit, error) {
	filter, err := BuildSearchFilter(ownerID, in.Query, in.Filter)
	if err != nil {
		return nil, err
	}

	topK, err := s.resolveTopK(in.TopK)
	if err != nil {
		return nil, err
	}

	// A bare "#space:" query is embedded as is.
	query := strings.TrimSpace(utils.RemoveSpacePattern(in.Query))

	vector, err := s.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.Vectors.Query(ctx, vector, filter, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		rec := model.RecordFromMetadata(m.Payload)
		if rec.Type != s.Kind {
			continue
		}
		hits = append(hits, SearchHit{
			DocID:    m.DocID,
			Content:  displayText(&rec),
			Metadata: m.Payload,
			Score:    m.Score,
		})
	}

	utils.TrackRecordOperation(string(s.Kind), "search")
	utils.Logger.Debug("search completed",
		zap.String("user_id", ownerID),
		zap.String("kind", string(s.Kind)),
		zap.Int("matches", len(matches)),
		zap.Int("hits", len(hits)))
	return hits, nil
}

func (s *RecordService) resolveTopK(requested int) (int, error) {
	switch {
	case requested == 0:
		if s.TopK > 0 {
			return s.TopK, nil
		}
		return DefaultTopK, nil
	case requested < 0 || requested > MaxTopK:
		return 0, apperror.Validation("top_k must be between 1 and 100").With("top_k", requested)
	default:
		return requested, nil
	}
}

// displayText renders a match as "Title: ...\nNote: ...\nSource: ...". Notes
// have no Source line.
func displayText(rec *model.Record) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(rec.Title)
	b.WriteString("\nNote: ")
	b.WriteString(strings.TrimSpace(utils.RemoveSpacePattern(rec.Note)))
	if rec.Type == model.KindBookmark {
		b.WriteString("\nSource: ")
		b.WriteString(rec.SourceURL)
	}
	return b.String()
}
