package model

import "time"

// User mirrors the identity provider's account; ID is the token subject.
type User struct {
	ID            string    `bson:"_id" json:"id"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	Role          string    `bson:"role,omitempty" json:"role,omitempty"`
	FullName      string    `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Picture       string    `bson:"picture,omitempty" json:"picture,omitempty"`
	Issuer        string    `bson:"issuer,omitempty" json:"issuer,omitempty"`
	Provider      string    `bson:"provider,omitempty" json:"provider,omitempty"`
	Providers     []string  `bson:"providers,omitempty" json:"providers,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	LastSignInAt  time.Time `bson:"last_sign_in_at" json:"last_sign_in_at"`
	LastUserAgent string    `bson:"last_user_agent,omitempty" json:"last_user_agent,omitempty"`
}
