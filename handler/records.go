package handler

import (
	"hippocampus/dto"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

func searchRecords(c *gin.Context, svc *usecase.RecordService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.SearchRequest
	if !bindJSON(c, &req) {
		return
	}

	hits, err := svc.Search(c.Request.Context(), userID, usecase.SearchInput{
		Query:  req.Query,
		Filter: req.Filter,
		TopK:   req.TopK,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	results := make([]dto.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = dto.SearchResult{
			ID:          h.DocID,
			PageContent: h.Content,
			Metadata:    h.Metadata,
			Score:       h.Score,
		}
	}
	utils.Success(c, results)
}

func deleteRecord(c *gin.Context, svc *usecase.RecordService, docID string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	outcome, err := svc.Delete(c.Request.Context(), userID, docID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Document deleted successfully"
	if !outcome.Deleted() {
		message = "Document not found"
	}
	utils.Message(c, message, dto.DeleteResponse{
		Status:  outcome.Status,
		Message: message,
		DocID:   outcome.DocID,
	})
}

func listRecords(c *gin.Context, svc *usecase.RecordService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	records, err := svc.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Success(c, dto.ToRecordResponses(records))
}
