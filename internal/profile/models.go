package profile

import "time"

type Profile struct {
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	Email            string    `json:"email"`
	AvatarURL        string    `json:"avatarUrl,omitempty"`
	IsCulturalUser   bool      `json:"isCulturalUser"`
	CulturalInterest string    `json:"culturalInterest"`
	CreatedAt        time.Time `json:"createdAt"`
	LastLoginAt      time.Time `json:"lastLoginAt"`
}

// UpdateRequest carries the fields a user may change. Nil fields are kept.
type UpdateRequest struct {
	DisplayName      *string `json:"displayName" validate:"omitempty,max=80"`
	AvatarURL        *string `json:"avatarUrl" validate:"omitempty,url"`
	IsCulturalUser   *bool   `json:"isCulturalUser"`
	CulturalInterest *string `json:"culturalInterest" validate:"omitempty,max=200"`
}
