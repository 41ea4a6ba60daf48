package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"culturecompass/internal/db"
	"culturecompass/internal/route"
)

const NoFeedback = "No aggregated feedback available yet."

const summaryComments = 20

type Comment struct {
	ID              string    `json:"id"`
	RouteID         string    `json:"routeId"`
	AuthorID        string    `json:"authorId"`
	AuthorName      string    `json:"authorName"`
	AuthorAvatarURL string    `json:"authorAvatarUrl,omitempty"`
	Body            string    `json:"body"`
	Rating          int       `json:"rating"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Body   string `json:"body" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

// InvalidError names the rejected field.
type InvalidError struct {
	Field   string
	Message string
}

func (e *InvalidError) Error() string { return e.Message }

var validate = validator.New(validator.WithRequiredStructEnabled())

type Service struct {
	db        db.Querier
	observers []route.Observer
}

func NewService(db db.Querier, observers ...route.Observer) *Service {
	return &Service{db: db, observers: observers}
}

// Add appends a comment and folds its rating into the route aggregate in
// one transaction, so rating stays null exactly while reviews_count is 0.
func (s *Service) Add(ctx context.Context, routeID string, who route.Identity, req CreateRequest) (Comment, error) {
	if who.ID == "" {
		return Comment{}, route.ErrUnauthenticated
	}
	req.Body = strings.TrimSpace(req.Body)
	if err := validate.Struct(req); err != nil {
		return Comment{}, invalid(err)
	}
	if !route.ValidID(routeID) {
		return Comment{}, route.ErrNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Comment{}, unavailable("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM routes WHERE id = $1 FOR UPDATE`, routeID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, route.ErrNotFound
	}
	if err != nil {
		return Comment{}, unavailable("lock route", err)
	}

	name := who.DisplayName
	if name == "" {
		name = "Anonymous User"
	}
	c := Comment{
		ID:              uuid.NewString(),
		RouteID:         routeID,
		AuthorID:        who.ID,
		AuthorName:      name,
		AuthorAvatarURL: who.AvatarURL,
		Body:            req.Body,
		Rating:          req.Rating,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO comments (id, route_id, author_id, author_name, author_avatar_url, body, rating)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, c.ID, c.RouteID, c.AuthorID, c.AuthorName, c.AuthorAvatarURL, c.Body, c.Rating).Scan(&c.CreatedAt)
	if err != nil {
		return Comment{}, unavailable("insert comment", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE routes
		SET reviews_count = reviews_count + 1,
			rating = (SELECT AVG(rating)::float8 FROM comments WHERE route_id = $1)
		WHERE id = $1
	`, routeID)
	if err != nil {
		return Comment{}, unavailable("update route rating", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, unavailable("commit comment", err)
	}

	for _, o := range s.observers {
		o.RouteChanged(ctx, route.Event{Type: route.EventUpdated, RouteID: routeID})
	}
	return c, nil
}

// List returns a route's comments newest first. A limit of 0 means all.
func (s *Service) List(ctx context.Context, routeID string, limit int) ([]Comment, error) {
	if !route.ValidID(routeID) {
		return []Comment{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, route_id, author_id, author_name, author_avatar_url, body, rating, created_at
		FROM comments WHERE route_id = $1
		ORDER BY created_at DESC
		LIMIT NULLIF($2, 0)
	`, routeID, max(limit, 0))
	if err != nil {
		return nil, unavailable("list comments", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.RouteID, &c.AuthorID, &c.AuthorName, &c.AuthorAvatarURL, &c.Body, &c.Rating, &c.CreatedAt); err != nil {
			return nil, unavailable("scan comment", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list comments", err)
	}
	return out, nil
}

// FeedbackSummary condenses the latest comments into one line per review.
func (s *Service) FeedbackSummary(ctx context.Context, routeID string) (string, error) {
	comments, err := s.List(ctx, routeID, summaryComments)
	if err != nil {
		return "", err
	}
	if len(comments) == 0 {
		return NoFeedback, nil
	}
	total := 0
	var b strings.Builder
	for _, c := range comments {
		total += c.Rating
		fmt.Fprintf(&b, "- (%d/5) %s\n", c.Rating, c.Body)
	}
	avg := float64(total) / float64(len(comments))
	return fmt.Sprintf("Average rating %.1f from %d recent reviews:\n%s", avg, len(comments), b.String()), nil
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Rating":
		return &InvalidError{Field: "rating", Message: "Rating must be a whole number from 1 to 5."}
	default:
		if verrs[0].Tag() == "max" {
			return &InvalidError{Field: "body", Message: "Comment must be at most 2000 characters."}
		}
		return &InvalidError{Field: "body", Message: "Comment text is required."}
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", route.ErrUnavailable, op, err)
}
