package handler

import (
	"hippocampus/dto"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

func SaveBookmarkHandler(c *gin.Context, bookmarks *usecase.RecordService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.SaveBookmarkRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := bookmarks.Save(c.Request.Context(), userID, usecase.RecordInput{
		Title: req.Title,
		Note:  req.Note,
		Link:  req.Link,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.Created(c, dto.SaveResponse{Status: "success", DocID: rec.DocID})
}

func SearchBookmarksHandler(c *gin.Context, bookmarks *usecase.RecordService) {
	searchRecords(c, bookmarks)
}

// DeleteBookmarkHandler takes the id from the doc_id_pincone query parameter
// the web client sends.
func DeleteBookmarkHandler(c *gin.Context, bookmarks *usecase.RecordService) {
	deleteRecord(c, bookmarks, c.Query("doc_id_pincone"))
}

func ListBookmarksHandler(c *gin.Context, bookmarks *usecase.RecordService) {
	listRecords(c, bookmarks)
}
