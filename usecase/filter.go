package usecase

import (
	"strings"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/utils"
)

const minQueryLength = 3

// BuildSearchFilter scopes a vector query to ownerID. The result is
//
//	namespace == owner AND [space == tag from query] AND [caller filter]
//
// The owner clause is always first and cannot be replaced by the caller
// filter, which is parsed from the $and/$or/$eq/$ne/$in/$nin dialect and
// kept as one opaque clause.
func BuildSearchFilter(ownerID, query string, caller map[string]any) (model.Filter, error) {
	if ownerID == "" {
		return model.Filter{}, apperror.Validation("User ID is required")
	}
	if len([]rune(strings.TrimSpace(query))) < minQueryLength {
		return model.Filter{}, apperror.Validation("Search query must be at least 3 characters").
			With("min_length", minQueryLength)
	}

	clauses := []model.Filter{model.Eq(model.FieldNamespace, ownerID)}

	if space, ok := utils.ExtractSpace(query); ok {
		clauses = append(clauses, model.Eq(model.FieldSpace, space))
	}

	if len(caller) > 0 {
		f, err := model.ParseFilter(caller)
		if err != nil {
			appErr := apperror.Validation("Invalid search filter").With("reason", err.Error())
			appErr.Err = err
			return model.Filter{}, appErr
		}
		clauses = append(clauses, f)
	}

	return model.And(clauses...), nil
}
