package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RegisterRequest struct {
	Email            string `json:"email" validate:"required,email,max=254"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
	DisplayName      string `json:"displayName" validate:"max=80"`
	AvatarURL        string `json:"avatarUrl" validate:"omitempty,url"`
	IsCulturalUser   bool   `json:"isCulturalUser"`
	CulturalInterest string `json:"culturalInterest" validate:"max=200"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignIn is what a profile shadow record learns from a register or login.
// The cultural fields only matter when the record is first created.
type SignIn struct {
	UserID           string
	DisplayName      string
	Email            string
	AvatarURL        string
	IsCulturalUser   bool
	CulturalInterest string
}
