package composer

import (
	"context"
	"errors"
	"testing"

	"culturecompass/internal/route"
)

type stubLoader map[string]route.Route

func (s stubLoader) Get(_ context.Context, id string) (route.Route, error) {
	r, ok := s[id]
	if !ok {
		return route.Route{}, route.ErrNotFound
	}
	return r, nil
}

func TestChooseAndReset(t *testing.T) {
	f := NewForm()
	if f.Mode() != ModeOptions {
		t.Fatalf("expected options")
	}
	if err := f.Choose(ModeEdit); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("edit must go through LoadForEdit")
	}
	if err := f.Choose(ModeShare); err != nil {
		t.Fatalf("choose share: %v", err)
	}
	if err := f.Choose(ModeNew); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected new to require options first")
	}
	f.SetTitle("T")
	f.SetLink("https://maps.app.goo.gl/a")
	if err := f.Choose(ModeOptions); err != nil {
		t.Fatalf("choose options: %v", err)
	}
	if f.Draft() != (Draft{}) {
		t.Fatalf("expected reset draft, got %+v", f.Draft())
	}
}

func TestShareLikeByMode(t *testing.T) {
	f := NewForm()
	_ = f.Choose(ModeShare)
	if !f.ShareLike() {
		t.Fatalf("share should be share-like")
	}
	f = NewForm()
	_ = f.Choose(ModeNew)
	f.SetLink("https://maps.app.goo.gl/a")
	if f.ShareLike() || f.Link().IsMapLink() {
		t.Fatalf("new mode has no link field")
	}
}

func TestSetLinkWarns(t *testing.T) {
	f := NewForm()
	_ = f.Choose(ModeShare)
	if w := f.SetLink("https://google.com/maps"); w == "" {
		t.Fatalf("expected warning")
	}
	if f.Draft().Link != "https://google.com/maps" {
		t.Fatalf("warning must not block typing")
	}
	if w := f.SetLink("https://maps.app.goo.gl/a"); w != "" {
		t.Fatalf("unexpected warning %q", w)
	}
}

func TestAttachAndRemoveImage(t *testing.T) {
	f := NewForm()
	_ = f.Choose(ModeShare)
	f.SetLink("https://maps.app.goo.gl/a")
	before := f.Preview()

	if err := f.AttachImage(MaxUploadBytes+1, "data:big"); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected oversized rejection")
	}
	if f.Preview() != before {
		t.Fatalf("rejected upload must not change preview")
	}

	if err := f.AttachImage(10, "data:image/png;base64,AA"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if f.Preview().Hint != route.HintUserUploaded {
		t.Fatalf("expected upload preview")
	}
	f.RemoveImage()
	if f.Preview() != before {
		t.Fatalf("removing upload should restore the map preview")
	}
}

func TestLoadForEdit(t *testing.T) {
	loader := stubLoader{
		"shared": {ID: "shared", CreatorID: "owner", Title: "T", Description: "D",
			ImageURL: "https://picsum.photos/seed/x/600/300", Link: route.MapLink("https://maps.app.goo.gl/x")},
		"custom": {ID: "custom", CreatorID: "owner", Title: "C", Description: "D",
			ImageURL: "https://cdn.example/mine.png", IsCulturalRoute: true},
	}

	f := NewForm()
	if err := f.LoadForEdit(context.Background(), loader, "shared", "intruder"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if f.Mode() != ModeOptions {
		t.Fatalf("non-owner must never enter edit")
	}
	if err := f.LoadForEdit(context.Background(), loader, "shared", ""); !errors.Is(err, route.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated")
	}
	if err := f.LoadForEdit(context.Background(), loader, "missing", "owner"); !errors.Is(err, route.ErrNotFound) {
		t.Fatalf("expected not found")
	}

	if err := f.LoadForEdit(context.Background(), loader, "shared", "owner"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Mode() != ModeEdit || !f.ShareLike() || f.Draft().Link != "https://maps.app.goo.gl/x" {
		t.Fatalf("unexpected edit state %+v", f.Draft())
	}
	if f.Draft().UploadURL != "" || f.Preview().Hint != route.HintMapPreview {
		t.Fatalf("placeholder should be regenerated, not passed through")
	}

	if err := f.LoadForEdit(context.Background(), loader, "custom", "owner"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.ShareLike() || !f.Draft().Cultural {
		t.Fatalf("unexpected custom edit state")
	}
	if p := f.Preview(); p.URL != "https://cdn.example/mine.png" || p.Hint != route.HintUserUploaded {
		t.Fatalf("custom image should pass through, got %+v", p)
	}
}

func TestCancel(t *testing.T) {
	f := NewForm()
	_ = f.Choose(ModeNew)
	f.SetTitle("T")
	if got := f.Cancel(); got != PathCreate || f.Mode() != ModeOptions || f.Draft().Title != "" {
		t.Fatalf("cancel from new: %s", got)
	}

	loader := stubLoader{"r": {ID: "r", CreatorID: "u", Title: "T", Description: "D"}}
	_ = f.LoadForEdit(context.Background(), loader, "r", "u")
	if got := f.Cancel(); got != PathMyPage {
		t.Fatalf("cancel from edit: %s", got)
	}
}
