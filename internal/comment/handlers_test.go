package comment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
	"culturecompass/internal/route"
)

func asUser(c *fiber.Ctx) error {
	if id := c.Get("X-User"); id != "" {
		auth.SetIdentity(c, route.Identity{ID: id, DisplayName: "Ana"})
	}
	return c.Next()
}

func newCommentApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apierr.Handler(zap.NewNop().Sugar())})
	RegisterRoutes(app.Group("/routes"), svc, asUser)
	return app
}

func TestPostCommentValidationAndAuth(t *testing.T) {
	app := newCommentApp(NewService(newMock(t)))

	body, _ := json.Marshal(CreateRequest{Body: "nice", Rating: 9})
	req := httptest.NewRequest(http.MethodPost, "/routes/"+testRouteID+"/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", "u1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var env struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&env)
	if env.Code != "invalid_comment" || env.Field != "rating" {
		t.Fatalf("unexpected envelope %+v", env)
	}

	req = httptest.NewRequest(http.MethodPost, "/routes/"+testRouteID+"/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListComments(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM comments WHERE route_id = \$1`).
		WithArgs(testRouteID, 0).
		WillReturnRows(pgxmock.NewRows(commentCols).AddRow("c1", testRouteID, "u1", "Ana", "", "Great", 5, time.Now()))
	app := newCommentApp(NewService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/routes/"+testRouteID+"/comments", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %v %v", resp, err)
	}
	var got []Comment
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Body != "Great" {
		t.Fatalf("unexpected comments %+v", got)
	}
}
