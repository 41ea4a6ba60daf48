package comment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"culturecompass/internal/route"
)

type recordingObserver struct{ events []route.Event }

func (r *recordingObserver) RouteChanged(_ context.Context, e route.Event) { r.events = append(r.events, e) }

const (
	testRouteID    = "6f1c1c52-3a9e-4f57-9d5c-2b9f0f7c1a10"
	missingRouteID = "0b7e2f44-1d6a-4c1e-8a55-91f0d3e6b2c7"
	emptyRouteID   = "d2a41b8e-5c0f-4e7a-b3c9-6e8f1a2b4d5e"
)

var commentCols = []string{"id", "route_id", "author_id", "author_name", "author_avatar_url", "body", "rating", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestAddUpdatesRatingInTransaction(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM routes WHERE id = \$1 FOR UPDATE`).
		WithArgs(testRouteID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(testRouteID))
	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(pgxmock.AnyArg(), testRouteID, "u1", "Ana", "", "Lovely walk", 4).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec(`UPDATE routes\s+SET reviews_count = reviews_count \+ 1`).
		WithArgs(testRouteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	obs := &recordingObserver{}
	svc := NewService(mock, obs)
	c, err := svc.Add(context.Background(), testRouteID, route.Identity{ID: "u1", DisplayName: "Ana"}, CreateRequest{Body: "  Lovely walk ", Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Body != "Lovely walk" || c.Rating != 4 || !c.CreatedAt.Equal(now) {
		t.Fatalf("unexpected comment: %+v", c)
	}
	if len(obs.events) != 1 || obs.events[0].Type != route.EventUpdated || obs.events[0].RouteID != testRouteID {
		t.Fatalf("expected one update event, got %+v", obs.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddUnknownRouteRollsBack(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM routes`).WithArgs(missingRouteID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	obs := &recordingObserver{}
	_, err := NewService(mock, obs).Add(context.Background(), missingRouteID, route.Identity{ID: "u1"}, CreateRequest{Body: "hi", Rating: 3})
	if !errors.Is(err, route.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(obs.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddAggregateFailureIsUnavailable(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM routes`).WithArgs(testRouteID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(testRouteID))
	mock.ExpectQuery(`INSERT INTO comments`).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE routes`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := NewService(mock).Add(context.Background(), testRouteID, route.Identity{ID: "u1"}, CreateRequest{Body: "hi", Rating: 5})
	if !errors.Is(err, route.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddRejectsBeforeTouchingStorage(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	if _, err := svc.Add(context.Background(), testRouteID, route.Identity{}, CreateRequest{Body: "hi", Rating: 3}); !errors.Is(err, route.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	cases := []struct {
		req   CreateRequest
		field string
	}{
		{CreateRequest{Body: "   ", Rating: 3}, "body"},
		{CreateRequest{Body: strings.Repeat("a", 2001), Rating: 3}, "body"},
		{CreateRequest{Body: "ok", Rating: 0}, "rating"},
		{CreateRequest{Body: "ok", Rating: 6}, "rating"},
	}
	for _, tc := range cases {
		_, err := svc.Add(context.Background(), testRouteID, route.Identity{ID: "u1"}, tc.req)
		var inv *InvalidError
		if !errors.As(err, &inv) || inv.Field != tc.field {
			t.Fatalf("expected invalid %s, got %v", tc.field, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFeedbackSummary(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM comments WHERE route_id = \$1`).
		WithArgs(emptyRouteID, summaryComments).
		WillReturnRows(pgxmock.NewRows(commentCols))
	now := time.Now()
	mock.ExpectQuery(`FROM comments WHERE route_id = \$1`).
		WithArgs(testRouteID, summaryComments).
		WillReturnRows(pgxmock.NewRows(commentCols).
			AddRow("c2", testRouteID, "u2", "Ben", "", "Too short", 2, now).
			AddRow("c1", testRouteID, "u1", "Ana", "", "Great murals", 5, now.Add(-time.Hour)))

	svc := NewService(mock)
	got, err := svc.FeedbackSummary(context.Background(), emptyRouteID)
	if err != nil || got != NoFeedback {
		t.Fatalf("expected fallback, got %q %v", got, err)
	}
	got, err = svc.FeedbackSummary(context.Background(), testRouteID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(got, "Average rating 3.5 from 2") || !strings.Contains(got, "(5/5) Great murals") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestNonUUIDRouteIsNotFound(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	_, err := svc.Add(context.Background(), "abc", route.Identity{ID: "u1"}, CreateRequest{Body: "hi", Rating: 3})
	if !errors.Is(err, route.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, err := svc.List(context.Background(), "abc", 0)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
