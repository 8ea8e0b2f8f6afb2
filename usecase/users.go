package usecase

import (
	"context"
	"time"

	"hippocampus/apperror"
	"hippocampus/model"
	"hippocampus/utils"

	"go.uber.org/zap"
)

type UserService struct {
	Users UserStore
	Now   func() time.Time
}

func NewUserService(users UserStore) *UserService {
	return &UserService{Users: users, Now: time.Now}
}

// SyncUser records a sign-in for the identity in user, creating the account
// document on first sight.
func (s *UserService) SyncUser(ctx context.Context, user *model.User, userAgent string) (bool, error) {
	if user == nil || user.ID == "" {
		return false, apperror.Validation("User ID is required")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	user.LastSignInAt = now().UTC()
	if userAgent != "" {
		user.LastUserAgent = utils.DescribeUserAgent(userAgent)
	}

	created, err := s.Users.UpsertUser(ctx, user)
	if err != nil {
		return false, err
	}
	if created {
		utils.Logger.Info("created user",
			zap.String("user_id", user.ID),
			zap.String("provider", user.Provider))
	}
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.Users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}
