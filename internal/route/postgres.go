package route

import (
	"context"
	"errors"
	"time"

	"culturecompass/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const routeColumns = `id, title, description, image_url, image_hint, tags, rating, reviews_count, duration,
		       is_cultural_route, start_point, start_lat, start_lng, google_maps_link,
		       creator_id, creator_name, creator_avatar_url, created_at, updated_at`

// PostgresStore keeps routes in the routes table. Rating and reviews_count
// are owned by the comment aggregate and never written by Replace.
type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, r Route) (Route, error) {
	r.ID = uuid.NewString()
	lat, lng := coordArgs(r.StartPointCoords)
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, title, description, image_url, image_hint, tags, rating, reviews_count, duration,
		                    is_cultural_route, start_point, start_lat, start_lng, google_maps_link,
		                    creator_id, creator_name, creator_avatar_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at
	`, r.ID, r.Title, r.Description, r.ImageURL, r.ImageHint, r.Tags, r.Rating, r.ReviewsCount, r.Duration,
		r.IsCulturalRoute, r.StartPoint, lat, lng, linkArg(r.Link),
		r.CreatorID, r.CreatorName, r.CreatorAvatarURL)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return Route{}, unavailable("insert route", err)
	}
	return r, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Route, error) {
	if !ValidID(id) {
		return Route{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+routeColumns+`
		FROM routes WHERE id=$1
	`, id)
	r, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, ErrNotFound
	}
	if err != nil {
		return Route{}, unavailable("get route", err)
	}
	return r, nil
}

func (s *PostgresStore) Replace(ctx context.Context, r Route, ifUpdatedAt *time.Time) (Route, error) {
	if !ValidID(r.ID) {
		return Route{}, ErrNotFound
	}
	lat, lng := coordArgs(r.StartPointCoords)
	row := s.db.QueryRow(ctx, `
		UPDATE routes
		SET title=$2, description=$3, image_url=$4, image_hint=$5, tags=$6, duration=$7,
		    is_cultural_route=$8, start_point=$9, start_lat=$10, start_lng=$11, google_maps_link=$12,
		    creator_name=$13, creator_avatar_url=$14, updated_at=now()
		WHERE id=$1 AND ($15::timestamptz IS NULL OR updated_at=$15)
		RETURNING updated_at, rating, reviews_count
	`, r.ID, r.Title, r.Description, r.ImageURL, r.ImageHint, r.Tags, r.Duration,
		r.IsCulturalRoute, r.StartPoint, lat, lng, linkArg(r.Link),
		r.CreatorName, r.CreatorAvatarURL, ifUpdatedAt)
	if err := row.Scan(&r.UpdatedAt, &r.Rating, &r.ReviewsCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if ifUpdatedAt != nil {
				return Route{}, ErrConflict
			}
			return Route{}, ErrNotFound
		}
		return Route{}, unavailable("update route", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM routes WHERE id=$1`, id); err != nil {
		return unavailable("delete route", err)
	}
	return nil
}

// ValidID reports whether id can name a row in the routes table, whose id
// column is a uuid. Anything else cannot exist.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PostgresStore) ListByCreator(ctx context.Context, creatorID string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+routeColumns+`
		FROM routes WHERE creator_id=$1
		ORDER BY created_at DESC
	`, creatorID)
	if err != nil {
		return nil, unavailable("list routes by creator", err)
	}
	return collect(rows)
}

// ListAll returns every route newest first; limit <= 0 means no limit.
func (s *PostgresStore) ListAll(ctx context.Context, limit int) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+routeColumns+`
		FROM routes
		ORDER BY created_at DESC
		LIMIT NULLIF($1, 0)
	`, max(limit, 0))
	if err != nil {
		return nil, unavailable("list routes", err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoute(row scanner) (Route, error) {
	var (
		r        Route
		lat, lng *float64
		link     *string
	)
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.ImageURL, &r.ImageHint, &r.Tags, &r.Rating, &r.ReviewsCount, &r.Duration,
		&r.IsCulturalRoute, &r.StartPoint, &lat, &lng, &link,
		&r.CreatorID, &r.CreatorName, &r.CreatorAvatarURL, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Route{}, err
	}
	if lat != nil && lng != nil {
		r.StartPointCoords = &Coords{Lat: *lat, Lng: *lng}
	}
	if link != nil {
		r.Link = LinkFrom(*link)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

func collect(rows pgx.Rows) ([]Route, error) {
	defer rows.Close()

	routes := []Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, unavailable("scan route", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read routes", err)
	}
	return routes, nil
}

func coordArgs(c *Coords) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Lat, c.Lng
	return &lat, &lng
}

func linkArg(l Link) *string {
	if u, ok := l.URL(); ok {
		return &u
	}
	return nil
}
