package route

import (
	"encoding/json"
	"time"
)

// Image hints describe where a route's image came from.
const (
	HintUserUploaded = "user uploaded"
	HintMapPreview   = "map preview"
	HintCustom       = "custom community route"
	HintGeneric      = "generic route image"
)

const (
	TagCultural  = "Cultural"
	TagSharedMap = "Shared Map"
	TagCustom    = "Custom"
)

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Route struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ImageURL         string    `json:"imageUrl"`
	ImageHint        string    `json:"imageHint"`
	Tags             []string  `json:"tags"`
	Rating           *float64  `json:"rating"`
	ReviewsCount     int       `json:"reviewsCount"`
	Duration         string    `json:"duration"`
	IsCulturalRoute  bool      `json:"isCulturalRoute"`
	StartPoint       string    `json:"startPoint"`
	StartPointCoords *Coords   `json:"startPointCoords,omitempty"`
	Link             Link      `json:"-"`
	CreatorID        string    `json:"creatorId"`
	CreatorName      string    `json:"creatorName"`
	CreatorAvatarURL string    `json:"creatorAvatarUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type routeJSON Route

// MarshalJSON exposes Link as the optional googleMapsLink field.
func (r Route) MarshalJSON() ([]byte, error) {
	out := struct {
		routeJSON
		GoogleMapsLink string `json:"googleMapsLink,omitempty"`
	}{routeJSON: routeJSON(r)}
	if u, ok := r.Link.URL(); ok {
		out.GoogleMapsLink = u
	}
	return json.Marshal(out)
}

func (r *Route) UnmarshalJSON(data []byte) error {
	var in struct {
		routeJSON
		GoogleMapsLink string `json:"googleMapsLink"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Route(in.routeJSON)
	r.Link = LinkFrom(in.GoogleMapsLink)
	return nil
}

// ShareLike reports whether the route carries an external map link.
func (r Route) ShareLike() bool {
	return r.Link.IsMapLink()
}

// Identity is the caller as seen by the persistence layer. Name and avatar
// are copied onto routes at write time.
type Identity struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// Draft is a validated route ready to be created.
type Draft struct {
	Title            string
	Description      string
	ImageURL         string
	ImageHint        string
	IsCulturalRoute  bool
	Link             Link
	StartPointCoords *Coords
}

// Patch holds the fields an update supplies. Nil fields are left untouched.
type Patch struct {
	Title            *string
	Description      *string
	ImageURL         *string
	ImageHint        *string
	Link             *Link
	IsCulturalRoute  *bool
	Tags             []string
	Duration         *string
	StartPoint       *string
	StartPointCoords *Coords
}

// TagsFor returns one of the four fixed tag sets.
func TagsFor(cultural, shareLike bool) []string {
	switch {
	case cultural && shareLike:
		return []string{TagCultural, TagSharedMap}
	case shareLike:
		return []string{TagSharedMap}
	case cultural:
		return []string{TagCultural, TagCustom}
	default:
		return []string{TagCustom}
	}
}

// Defaults returns the duration and start point labels for a route kind.
func Defaults(shareLike bool) (duration, startPoint string) {
	if shareLike {
		return "Varies", "From Google Maps"
	}
	return "User Defined", "User Described"
}
