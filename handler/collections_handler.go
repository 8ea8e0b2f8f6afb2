package handler

import (
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
)

func ListCollectionsHandler(c *gin.Context, collections *usecase.CollectionsService) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	counts, err := collections.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Success(c, counts)
}
