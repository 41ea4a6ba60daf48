package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"culturecompass/internal/auth"
	"culturecompass/internal/db"
)

var ErrNotFound = errors.New("profile not found")

var validate = validator.New(validator.WithRequiredStructEnabled())

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

const profileColumns = `user_id, display_name, email, avatar_url, is_cultural_user, cultural_interest, created_at, last_login_at`

// SyncSignIn merges a sign-in into the shadow record. Identity fields and
// the last login are refreshed; the cultural fields are only written when
// the record is created.
func (s *Service) SyncSignIn(ctx context.Context, in auth.SignIn) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (user_id, display_name, email, avatar_url, is_cultural_user, cultural_interest, created_at, last_login_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			last_login_at = EXCLUDED.last_login_at
	`, in.UserID, in.DisplayName, in.Email, in.AvatarURL, in.IsCulturalUser, in.CulturalInterest)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (Profile, error) {
	if err := validate.Struct(req); err != nil {
		return Profile{}, err
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if req.DisplayName != nil {
		current.DisplayName = *req.DisplayName
	}
	if req.AvatarURL != nil {
		current.AvatarURL = *req.AvatarURL
	}
	if req.IsCulturalUser != nil {
		current.IsCulturalUser = *req.IsCulturalUser
	}
	if req.CulturalInterest != nil {
		current.CulturalInterest = *req.CulturalInterest
	}

	row := s.db.QueryRow(ctx, `
		UPDATE profiles
		SET display_name=$2, avatar_url=$3, is_cultural_user=$4, cultural_interest=$5
		WHERE user_id=$1
		RETURNING `+profileColumns, userID, current.DisplayName, current.AvatarURL, current.IsCulturalUser, current.CulturalInterest)
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.DisplayName, &p.Email, &p.AvatarURL, &p.IsCulturalUser, &p.CulturalInterest, &p.CreatedAt, &p.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}
