package route

import (
	"context"
	"errors"
	"time"
)

type Service struct {
	store     Store
	observers []Observer
}

func NewService(store Store, observers ...Observer) *Service {
	return &Service{store: store, observers: observers}
}

// Create stores a new route owned by the caller. Rating starts null with
// zero reviews; tags and labels are derived from the cultural flag and link.
func (s *Service) Create(ctx context.Context, who Identity, d Draft) (Route, error) {
	if who.ID == "" {
		return Route{}, ErrUnauthenticated
	}
	if !d.Link.Valid() {
		return Route{}, ErrInvalidLink
	}
	name := who.DisplayName
	if name == "" {
		name = "Anonymous User"
	}
	shareLike := d.Link.IsMapLink()
	duration, startPoint := Defaults(shareLike)

	created, err := s.store.Insert(ctx, Route{
		Title:            d.Title,
		Description:      d.Description,
		ImageURL:         d.ImageURL,
		ImageHint:        d.ImageHint,
		Tags:             TagsFor(d.IsCulturalRoute, shareLike),
		Rating:           nil,
		ReviewsCount:     0,
		Duration:         duration,
		IsCulturalRoute:  d.IsCulturalRoute,
		StartPoint:       startPoint,
		StartPointCoords: d.StartPointCoords,
		Link:             d.Link,
		CreatorID:        who.ID,
		CreatorName:      name,
		CreatorAvatarURL: who.AvatarURL,
	})
	if err != nil {
		return Route{}, err
	}
	s.notify(ctx, Event{Type: EventCreated, RouteID: created.ID})
	return created, nil
}

// Update merges the supplied fields into the caller's route. A non-nil
// ifUpdatedAt turns the write into a compare-and-swap on updatedAt.
func (s *Service) Update(ctx context.Context, id string, who Identity, patch Patch, ifUpdatedAt *time.Time) (Route, error) {
	if who.ID == "" {
		return Route{}, ErrUnauthenticated
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Route{}, err
	}
	if current.CreatorID != who.ID {
		return Route{}, ErrPermissionDenied
	}
	if patch.Link != nil && !patch.Link.Valid() {
		return Route{}, ErrInvalidLink
	}

	next := apply(current, patch)
	if who.DisplayName != "" {
		next.CreatorName = who.DisplayName
	}
	if who.AvatarURL != "" {
		next.CreatorAvatarURL = who.AvatarURL
	}

	updated, err := s.store.Replace(ctx, next, ifUpdatedAt)
	if err != nil {
		return Route{}, err
	}
	s.notify(ctx, Event{Type: EventUpdated, RouteID: updated.ID})
	return updated, nil
}

// Delete removes the caller's route. An absent route is not an error.
func (s *Service) Delete(ctx context.Context, id string, who Identity) error {
	if who.ID == "" {
		return ErrUnauthenticated
	}
	current, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.CreatorID != who.ID {
		return ErrPermissionDenied
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, Event{Type: EventDeleted, RouteID: id})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Route, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByCreator(ctx context.Context, creatorID string) ([]Route, error) {
	if creatorID == "" {
		return []Route{}, nil
	}
	return s.store.ListByCreator(ctx, creatorID)
}

func (s *Service) ListAll(ctx context.Context, limit int) ([]Route, error) {
	return s.store.ListAll(ctx, limit)
}

func (s *Service) notify(ctx context.Context, ev Event) {
	for _, o := range s.observers {
		o.RouteChanged(ctx, ev)
	}
}

func apply(r Route, p Patch) Route {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
	if p.ImageHint != nil {
		r.ImageHint = *p.ImageHint
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
	if p.IsCulturalRoute != nil {
		r.IsCulturalRoute = *p.IsCulturalRoute
	}
	if p.Tags != nil {
		r.Tags = append([]string(nil), p.Tags...)
	}
	if p.Duration != nil {
		r.Duration = *p.Duration
	}
	if p.StartPoint != nil {
		r.StartPoint = *p.StartPoint
	}
	if p.StartPointCoords != nil {
		c := *p.StartPointCoords
		r.StartPointCoords = &c
	}
	return r
}
