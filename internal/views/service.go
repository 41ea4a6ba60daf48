package views

import (
	"context"

	"culturecompass/internal/route"
)

type Detail struct {
	Route route.Route `json:"route"`
	Map   *MapView    `json:"map"`
}

type Service struct {
	routes  *route.Service
	cache   *ListingCache
	mapsKey string
}

func NewService(routes *route.Service, cache *ListingCache, mapsKey string) *Service {
	return &Service{routes: routes, cache: cache, mapsKey: mapsKey}
}

// Discover lists every route newest first, filtered by q.
func (s *Service) Discover(ctx context.Context, q string) ([]route.Route, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Search(all, q), nil
}

func (s *Service) MyRoutes(ctx context.Context, userID string) ([]route.Route, error) {
	if userID == "" {
		return nil, route.ErrUnauthenticated
	}
	return s.routes.ListByCreator(ctx, userID)
}

func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	r, err := s.routes.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Route: r, Map: Embed(r.Link, s.mapsKey)}, nil
}

func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyRoute, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Nearby(all, lat, lng, radiusKm), nil
}

func (s *Service) all(ctx context.Context) ([]route.Route, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}
	all, err := s.routes.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, all)
	return all, nil
}
