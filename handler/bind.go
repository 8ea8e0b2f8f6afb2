package handler

import (
	"errors"
	"strings"

	"hippocampus/apperror"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON decodes the body into obj. Binding failures become validation
// errors listing the offending fields.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		appErr := apperror.Validation("Invalid request body")
		appErr.Err = err

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			appErr.With("fields", fields)
		}

		_ = c.Error(appErr)
		return false
	}
	return true
}

// currentUser returns the authenticated user id, failing the request when the
// auth middleware did not set one.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(utils.ContextUserID)
	if userID == "" {
		_ = c.Error(apperror.Auth("Authentication required"))
		return "", false
	}
	return userID, true
}
