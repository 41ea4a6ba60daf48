package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
)

func newAuthApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apierr.Handler(zap.NewNop().Sugar())})
	RegisterRoutes(app.Group("/auth"), svc, JWTMiddleware("test-secret"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func decodeCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Code
}

func TestAuthHandlersRegisterLoginMe(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "user@example.com", "Ana", pgxmock.AnyArg(), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	expectRefreshSave(mock, pgxmock.AnyArg())

	svc := NewService("test-secret", mock)
	app := newAuthApp(svc)

	resp := postJSON(t, app, "/auth/register", RegisterRequest{Email: "user@example.com", Password: "password", DisplayName: "Ana"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}

	expectUser(mock, "user@example.com", "user-1", "user@example.com", hashOf(t, "password"), false)
	expectRefreshSave(mock, "user-1")
	resp = postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com", Password: "password"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	var login struct {
		Tokens TokenResponse `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil || login.Tokens.AccessToken == "" {
		t.Fatalf("expected tokens: %v", err)
	}

	expectUser(mock, "user-1", "user-1", "user@example.com", "hash", false)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Tokens.AccessToken)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("me status: %v", err)
	}
}

func TestAuthLoginErrorCodes(t *testing.T) {
	mock := newMock(t)
	app := newAuthApp(NewService("test-secret", mock))

	mock.ExpectQuery(`SELECT id, email`).WithArgs("ghost@example.com").WillReturnError(pgx.ErrNoRows)
	resp := postJSON(t, app, "/auth/login", LoginRequest{Email: "ghost@example.com", Password: "x"})
	if resp.StatusCode != http.StatusNotFound || decodeCode(t, resp) != "user-not-found" {
		t.Fatalf("expected user-not-found")
	}

	expectUser(mock, "user@example.com", "user-1", "user@example.com", hashOf(t, "correct"), false)
	resp = postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized || decodeCode(t, resp) != "invalid-credential" {
		t.Fatalf("expected invalid-credential")
	}
}

func TestAuthBadRequests(t *testing.T) {
	app := newAuthApp(NewService("test-secret", nil))

	cases := []struct {
		path string
		body string
	}{
		{"/auth/register", "{bad"},
		{"/auth/login", `{"email":""}`},
		{"/auth/refresh", `{}`},
		{"/auth/logout", `{}`},
		{"/auth/password-reset/confirm", `{"password":"x"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, bytes.NewReader([]byte(tc.body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil || resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request", tc.path)
		}
	}
}

func TestAuthRegisterValidationError(t *testing.T) {
	app := newAuthApp(NewService("test-secret", nil))
	resp := postJSON(t, app, "/auth/register", RegisterRequest{Email: "nope", Password: "password"})
	if resp.StatusCode != http.StatusUnprocessableEntity || decodeCode(t, resp) != "invalid-argument" {
		t.Fatalf("expected invalid-argument")
	}
}

func TestAuthRefreshInvalidToken(t *testing.T) {
	app := newAuthApp(NewService("test-secret", nil))
	resp := postJSON(t, app, "/auth/refresh", map[string]string{"refresh_token": "bad"})
	if resp.StatusCode != http.StatusUnauthorized || decodeCode(t, resp) != "invalid-token" {
		t.Fatalf("expected invalid-token")
	}
}

func TestAuthLogout(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs("refresh-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	app := newAuthApp(NewService("test-secret", mock))
	resp := postJSON(t, app, "/auth/logout", map[string]string{"refresh_token": "refresh-1"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status: %d", resp.StatusCode)
	}
}

func TestAuthPasswordResetAlwaysAccepted(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, email`).WithArgs("ghost@example.com").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT id, email`).WithArgs("user@example.com").WillReturnError(pgErr)

	app := newAuthApp(NewService("test-secret", mock, WithResetMailer(&fakeMailer{}, "x")))
	for _, email := range []string{"ghost@example.com", "user@example.com"} {
		resp := postJSON(t, app, "/auth/password-reset", PasswordResetRequest{Email: email})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("%s: expected accepted, got %d", email, resp.StatusCode)
		}
	}

	resp := postJSON(t, app, "/auth/password-reset", PasswordResetRequest{})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected empty email to be rejected")
	}
}

func TestAuthMeRequiresToken(t *testing.T) {
	app := newAuthApp(NewService("test-secret", nil))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}
