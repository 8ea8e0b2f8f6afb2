package dto

import (
	"hippocampus/model"
)

type SaveBookmarkRequest struct {
	Title string `json:"title" binding:"required,notblank,max=500"`
	Note  string `json:"note" binding:"max=10000"`
	Link  string `json:"link" binding:"required,notblank,max=2048"`
}

type NoteRequest struct {
	Title string `json:"title" binding:"required,notblank,max=500"`
	Note  string `json:"note" binding:"max=10000"`
}

// SearchRequest carries the query text and an optional caller filter in the
// $and/$or/$eq/$ne/$in/$nin dialect.
type SearchRequest struct {
	Query  string         `json:"query"`
	Filter map[string]any `json:"filter,omitempty"`
	TopK   int            `json:"top_k,omitempty" binding:"omitempty,min=1,max=100"`
}

type SaveResponse struct {
	Status string `json:"status"`
	DocID  string `json:"doc_id"`
}

type DeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
}

type RecordResponse struct {
	ID        string     `json:"id,omitempty"`
	DocID     string     `json:"doc_id"`
	UserID    string     `json:"user_id"`
	Type      model.Kind `json:"type"`
	Title     string     `json:"title"`
	Note      string     `json:"note"`
	SourceURL string     `json:"source_url,omitempty"`
	SiteName  string     `json:"site_name,omitempty"`
	Date      string     `json:"date"`
	Space     string     `json:"space"`
	UpdatedAt string     `json:"updated_at,omitempty"`
}

func ToRecordResponse(r *model.Record) RecordResponse {
	resp := RecordResponse{
		DocID:     r.DocID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Note:      r.Note,
		SourceURL: r.SourceURL,
		SiteName:  r.SiteName,
		Date:      r.Date,
		Space:     r.Space,
		UpdatedAt: r.UpdatedAt,
	}
	if !r.ID.IsZero() {
		resp.ID = r.ID.Hex()
	}
	return resp
}

func ToRecordResponses(records []model.Record) []RecordResponse {
	responses := make([]RecordResponse, len(records))
	for i := range records {
		responses[i] = ToRecordResponse(&records[i])
	}
	return responses
}

// SearchResult is one match rendered for display.
type SearchResult struct {
	ID          string            `json:"id"`
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata"`
	Score       float32           `json:"score"`
}
