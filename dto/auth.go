package dto

type LoginRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthUser struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

type LoginResponse struct {
	Message   string   `json:"message"`
	User      AuthUser `json:"user"`
	ExpiresAt int64    `json:"expires_at"`
}

type AuthStatusResponse struct {
	HasAccessToken  bool   `json:"has_access_token"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	IsAuthenticated bool   `json:"is_authenticated"`
	TokenValid      bool   `json:"token_valid"`
	UserID          string `json:"user_id,omitempty"`
	UserEmail       string `json:"user_email,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	Picture         string `json:"picture,omitempty"`
	TokenExpires    int64  `json:"token_expires,omitempty"`
	TokenError      string `json:"token_error,omitempty"`
}
