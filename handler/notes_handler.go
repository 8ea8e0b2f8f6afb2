package handler

import (
	"hippocampus/dto"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

func ListNotesHandler(c *gin.Context, notes *usecase.RecordService) {
	listRecords(c, notes)
}

func CreateNoteHandler(c *gin.Context, notes *usecase.RecordService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := notes.Save(c.Request.Context(), userID, usecase.RecordInput{Title: req.Title, Note: req.Note})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.Created(c, dto.ToRecordResponse(rec))
}

func UpdateNoteHandler(c *gin.Context, notes *usecase.RecordService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := notes.Update(c.Request.Context(), userID, c.Param("id"), usecase.RecordInput{Title: req.Title, Note: req.Note})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.Message(c, "Note updated successfully", dto.ToRecordResponse(rec))
}

func SearchNotesHandler(c *gin.Context, notes *usecase.RecordService) {
	searchRecords(c, notes)
}

func DeleteNoteHandler(c *gin.Context, notes *usecase.RecordService) {
	deleteRecord(c, notes, c.Param("id"))
}
