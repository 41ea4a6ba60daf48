package composer

import (
	"context"
	"fmt"
	"time"

	"culturecompass/internal/route"
)

// Writer is the persistence side of a submission.
type Writer interface {
	Create(ctx context.Context, who route.Identity, d route.Draft) (route.Route, error)
	Update(ctx context.Context, id string, who route.Identity, p route.Patch, ifUpdatedAt *time.Time) (route.Route, error)
}

// Outcome describes a successful submission.
type Outcome struct {
	Route    route.Route `json:"route"`
	Title    string      `json:"title"`
	Notice   string      `json:"notice"`
	Redirect string      `json:"redirect,omitempty"`
}

// Submit validates the form and writes it. Edits merge the form fields into
// the stored route and navigate to My-Page; creations reset to options.
func (f *Form) Submit(ctx context.Context, w Writer, who route.Identity, ifUpdatedAt *time.Time) (Outcome, error) {
	if err := f.Validate(who.ID != ""); err != nil {
		return Outcome{}, err
	}
	if f.mode == ModeOptions {
		return Outcome{}, ErrInvalidTransition
	}

	d := f.draft
	img := f.Preview()
	shareLike := f.ShareLike()
	link := f.Link()

	if f.mode == ModeEdit {
		duration, startPoint := route.Defaults(shareLike)
		patch := route.Patch{
			Title:            &d.Title,
			Description:      &d.Description,
			ImageURL:         &img.URL,
			ImageHint:        &img.Hint,
			Link:             &link,
			IsCulturalRoute:  &d.Cultural,
			Tags:             route.TagsFor(d.Cultural, shareLike),
			Duration:         &duration,
			StartPoint:       &startPoint,
			StartPointCoords: d.StartPoint,
		}
		updated, err := w.Update(ctx, f.editing.ID, who, patch, ifUpdatedAt)
		if err != nil {
			return Outcome{}, err
		}
		f.reset()
		return Outcome{
			Route:    updated,
			Title:    "Route Updated!",
			Notice:   fmt.Sprintf("%s has been successfully updated.", updated.Title),
			Redirect: PathMyPage,
		}, nil
	}

	created, err := w.Create(ctx, who, route.Draft{
		Title:            d.Title,
		Description:      d.Description,
		ImageURL:         img.URL,
		ImageHint:        img.Hint,
		IsCulturalRoute:  d.Cultural,
		Link:             link,
		StartPointCoords: d.StartPoint,
	})
	if err != nil {
		return Outcome{}, err
	}
	title := "Route Created!"
	if shareLike {
		title = "Route Shared!"
	}
	f.reset()
	return Outcome{
		Route:  created,
		Title:  title,
		Notice: fmt.Sprintf("%s has been added.", created.Title),
	}, nil
}
