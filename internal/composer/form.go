package composer

import (
	"context"
	"errors"
	"strings"

	"culturecompass/internal/route"
)

type Mode string

const (
	ModeOptions Mode = "options"
	ModeShare   Mode = "share"
	ModeNew     Mode = "new"
	ModeEdit    Mode = "edit"
)

var (
	ErrNotOwner          = errors.New("you can only edit your own routes")
	ErrInvalidTransition = errors.New("invalid composer transition")
)

// Navigation targets returned by Cancel and Submit.
const (
	PathMyPage = "/my-page"
	PathCreate = "/create"
	PathSignIn = "/auth/signin"
)

// Draft holds the raw field values of the form.
type Draft struct {
	Title       string        `json:"title" validate:"max=120"`
	Description string        `json:"description" validate:"max=2000"`
	Link        string        `json:"googleMapsLink" validate:"max=512"`
	Cultural    bool          `json:"isCulturalRoute"`
	UploadURL   string        `json:"-"`
	StartPoint  *route.Coords `json:"startPointCoords,omitempty"`
}

// Loader reads a stored route for editing.
type Loader interface {
	Get(ctx context.Context, id string) (route.Route, error)
}

// Form is the composer state machine. It is not safe for concurrent use.
type Form struct {
	mode    Mode
	draft   Draft
	editing *route.Route
	warning string
}

func NewForm() *Form {
	return &Form{mode: ModeOptions}
}

func (f *Form) Mode() Mode { return f.mode }

func (f *Form) Draft() Draft { return f.draft }

// Editing returns the route loaded for edit, if any.
func (f *Form) Editing() (route.Route, bool) {
	if f.editing == nil {
		return route.Route{}, false
	}
	return *f.editing, true
}

// Warning is the non-blocking link warning from the last SetLink.
func (f *Form) Warning() string { return f.warning }

// Choose moves between the landing choice and the share/new flows. Going to
// options resets every field. Edit is only reachable through LoadForEdit.
func (f *Form) Choose(m Mode) error {
	switch m {
	case ModeOptions:
		f.reset()
		return nil
	case ModeShare, ModeNew:
		if f.mode != ModeOptions {
			return ErrInvalidTransition
		}
		f.mode = m
		return nil
	default:
		return ErrInvalidTransition
	}
}

// LoadForEdit loads the viewer's route and enters edit. A non-owner never
// enters edit and the form is left untouched.
func (f *Form) LoadForEdit(ctx context.Context, loader Loader, id, viewerID string) error {
	if viewerID == "" {
		return route.ErrUnauthenticated
	}
	r, err := loader.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.CreatorID != viewerID {
		return ErrNotOwner
	}

	f.reset()
	f.mode = ModeEdit
	f.editing = &r
	f.draft = Draft{
		Title:       r.Title,
		Description: r.Description,
		Link:        r.Link.String(),
		Cultural:    r.IsCulturalRoute,
		StartPoint:  r.StartPointCoords,
	}
	if r.ImageURL != "" && !IsPlaceholder(r.ImageURL) {
		f.draft.UploadURL = r.ImageURL
	}
	return nil
}

func (f *Form) SetTitle(s string) { f.draft.Title = s }

func (f *Form) SetDescription(s string) { f.draft.Description = s }

func (f *Form) SetCultural(b bool) { f.draft.Cultural = b }

func (f *Form) SetStartPoint(c route.Coords) { f.draft.StartPoint = &c }

// SetLink stores the link and returns a warning when it is non-empty and
// malformed. The warning never blocks editing.
func (f *Form) SetLink(s string) string {
	f.draft.Link = strings.TrimSpace(s)
	f.warning = ""
	if f.draft.Link != "" && !route.ValidMapsLink(f.draft.Link) {
		f.warning = linkMessage
	}
	return f.warning
}

// AttachImage sets an uploaded image. An oversized file is rejected and the
// preview is unchanged.
func (f *Form) AttachImage(size int64, url string) error {
	if size > MaxUploadBytes {
		return ErrImageTooLarge
	}
	f.draft.UploadURL = url
	return nil
}

// RemoveImage drops the upload so the preview falls back to the link or
// stored placeholder.
func (f *Form) RemoveImage() { f.draft.UploadURL = "" }

// ShareLike reports whether the form carries a map link field: the share
// flow, or editing a route that was shared with a link.
func (f *Form) ShareLike() bool {
	switch f.mode {
	case ModeShare:
		return true
	case ModeEdit:
		return f.editing != nil && f.editing.Link.IsMapLink()
	default:
		return false
	}
}

// Link is the draft link as a variant. Forms without a link field always
// yield None.
func (f *Form) Link() route.Link {
	if !f.ShareLike() {
		return route.NoLink()
	}
	return route.LinkFrom(f.draft.Link)
}

func (f *Form) Preview() Image {
	in := ImageInput{
		UploadURL: f.draft.UploadURL,
		Link:      f.Link(),
		Title:     f.draft.Title,
		Editing:   f.mode == ModeEdit,
		ShareLike: f.ShareLike(),
	}
	if f.editing != nil {
		in.StoredURL = f.editing.ImageURL
	}
	return ResolveImage(in)
}

// Cancel leaves the current flow and returns where to navigate.
func (f *Form) Cancel() string {
	wasEdit := f.mode == ModeEdit
	f.reset()
	if wasEdit {
		return PathMyPage
	}
	return PathCreate
}

func (f *Form) reset() {
	f.mode = ModeOptions
	f.draft = Draft{}
	f.editing = nil
	f.warning = ""
}
