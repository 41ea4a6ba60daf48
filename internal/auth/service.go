package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"culturecompass/internal/db"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
	resetTokenTTL   = 30 * time.Minute
)

const (
	purposeRefresh = "refresh"
	purposeReset   = "password_reset"
)

// ProfileSyncer keeps the profile shadow record in step with sign-ins.
type ProfileSyncer interface {
	SyncSignIn(ctx context.Context, s SignIn) error
}

// ResetMailer delivers password-reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

type Service struct {
	secret   []byte
	db       db.Querier
	limiter  *Limiter
	profiles ProfileSyncer
	mailer   ResetMailer
	resetURL string
	log      *zap.SugaredLogger
}

type Option func(*Service)

func WithLimiter(l *Limiter) Option { return func(s *Service) { s.limiter = l } }

func WithProfiles(p ProfileSyncer) Option { return func(s *Service) { s.profiles = p } }

// WithResetMailer sets the mailer and the link prefix the reset token is appended to.
func WithResetMailer(m ResetMailer, resetURL string) Option {
	return func(s *Service) {
		s.mailer = m
		s.resetURL = resetURL
	}
}

func WithLogger(log *zap.SugaredLogger) Option { return func(s *Service) { s.log = log } }

type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

var (
	signTokenFn       = (*Service).signToken
	hashPasswordFn    = bcrypt.GenerateFromPassword
	parseWithClaimsFn = jwt.ParseWithClaims
	validate          = validator.New(validator.WithRequiredStructEnabled())
)

func NewService(secret string, db db.Querier, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		db:     db,
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const userColumns = `id, email, display_name, password_hash, avatar_url, disabled, created_at, updated_at`

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return User{}, TokenResponse{}, invalidArgument(validationMessage(err))
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		AvatarURL:    req.AvatarURL,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, avatar_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.AvatarURL)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, TokenResponse{}, ErrEmailInUse
		}
		return User{}, TokenResponse{}, networkFailure("insert user", err)
	}

	s.syncProfile(ctx, SignIn{
		UserID:           user.ID,
		DisplayName:      user.DisplayName,
		Email:            user.Email,
		AvatarURL:        user.AvatarURL,
		IsCulturalUser:   req.IsCulturalUser,
		CulturalInterest: req.CulturalInterest,
	})

	tokens, err := s.GenerateTokens(ctx, user)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		s.log.Warnw("login limiter unavailable", "error", err)
	}
	if !allowed {
		return User{}, TokenResponse{}, ErrTooManyRequests
	}

	user, err := s.userBy(ctx, "email", email)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	if user.Disabled {
		return User{}, TokenResponse{}, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, ErrInvalidCredential
	}
	if err := s.limiter.Reset(ctx, email); err != nil {
		s.log.Warnw("login limiter reset failed", "error", err)
	}

	s.syncProfile(ctx, SignIn{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
	})

	tokens, err := s.GenerateTokens(ctx, user)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

// User returns the account for an authenticated caller.
func (s *Service) User(ctx context.Context, id string) (User, error) {
	return s.userBy(ctx, "id", id)
}

func (s *Service) GenerateTokens(ctx context.Context, user User) (TokenResponse, error) {
	access, err := signTokenFn(s, s.claimsFor(user, ""), accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, s.claimsFor(user, purposeRefresh), refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, user.ID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// Refresh exchanges a live refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, token string) (TokenResponse, error) {
	userID, err := s.ValidateRefreshToken(ctx, token)
	if err != nil {
		return TokenResponse{}, err
	}
	user, err := s.User(ctx, userID)
	if err != nil {
		return TokenResponse{}, err
	}
	if user.Disabled {
		return TokenResponse{}, ErrUserDisabled
	}
	return s.GenerateTokens(ctx, user)
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil || claims.Purpose != purposeRefresh {
		return "", ErrInvalidToken
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil || claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes a refresh token. Revoking twice is not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, refreshToken)
	if err != nil {
		return networkFailure("revoke refresh token", err)
	}
	return nil
}

// RequestPasswordReset mails a reset link when the account exists. Unknown
// addresses are not reported to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return invalidArgument("Please enter your email address.")
	}
	user, err := s.userBy(ctx, "email", email)
	if errors.Is(err, ErrUserNotFound) {
		s.log.Infow("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	token, err := signTokenFn(s, s.claimsFor(user, purposeReset), resetTokenTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL+token); err != nil {
		return networkFailure("send reset mail", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password and revokes every refresh token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	claims, err := s.parseToken(req.Token)
	if err != nil || claims.Purpose != purposeReset {
		return ErrInvalidToken
	}
	if err := validate.Struct(req); err != nil {
		return invalidArgument(validationMessage(err))
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, claims.UserID, string(hash))
	if err != nil {
		return networkFailure("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, claims.UserID); err != nil {
		return networkFailure("revoke refresh tokens", err)
	}
	return nil
}

func (s *Service) claimsFor(user User, purpose string) Claims {
	return Claims{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Purpose:     purpose,
	}
}

func (s *Service) signToken(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) userBy(ctx context.Context, column, value string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.AvatarURL, &u.Disabled, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, networkFailure("load user", err)
	}
	return u, nil
}

func (s *Service) syncProfile(ctx context.Context, in SignIn) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.SyncSignIn(ctx, in); err != nil {
		s.log.Warnw("profile sync failed", "user_id", in.UserID, "error", err)
	}
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	if err != nil {
		return networkFailure("save refresh token", err)
	}
	return nil
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required."
		case "email":
			return "The email address is not valid."
		case "min":
			return fe.Field() + " must be at least " + fe.Param() + " characters."
		case "max":
			return fe.Field() + " must be at most " + fe.Param() + " characters."
		}
		return fe.Field() + " is invalid."
	}
	return err.Error()
}
