package utils

// Keys set on the gin context by middleware.
const (
	ContextUserID      = "user_id"
	ContextClaims      = "auth_claims"
	ContextAccessToken = "access_token"
	ContextRequestID   = "request_id"
)
