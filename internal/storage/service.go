// Package storage hosts uploaded route images and records where they live.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/uuid"

	"culturecompass/internal/db"
)

const KindRouteImage = "route_image"

// Host puts an image somewhere public and returns its URL.
type Host interface {
	Put(ctx context.Context, r io.Reader, name string) (string, error)
}

// Service stores uploads on a Host and records them in storage_objects.
// Without a Host, images are inlined as data URLs and nothing is recorded.
type Service struct {
	db   db.Querier
	host Host
}

func NewService(db db.Querier, host Host) *Service {
	return &Service{db: db, host: host}
}

// Store implements the composer's uploader.
func (s *Service) Store(ctx context.Context, userID string, data []byte, mime string) (string, error) {
	obj, err := s.Upload(ctx, userID, data, mime)
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

type Object struct {
	ID     string `json:"id,omitempty"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Inline bool   `json:"inline"`
}

func (s *Service) Upload(ctx context.Context, userID string, data []byte, mime string) (Object, error) {
	if s.host == nil {
		return Object{URL: InlineURL(data, mime), Kind: KindRouteImage, Inline: true}, nil
	}
	url, err := s.host.Put(ctx, bytes.NewReader(data), uuid.NewString())
	if err != nil {
		return Object{}, fmt.Errorf("upload image: %w", err)
	}
	obj := Object{URL: url, Kind: KindRouteImage}
	if s.db == nil {
		return obj, nil
	}
	id, err := s.SaveObject(ctx, userID, url, KindRouteImage)
	if err != nil {
		return Object{}, fmt.Errorf("record image: %w", err)
	}
	obj.ID = id
	return obj, nil
}

func (s *Service) SaveObject(ctx context.Context, userID, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		return "", err
	}
	return id, nil
}

// InlineURL encodes an image as a data URL.
func InlineURL(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
