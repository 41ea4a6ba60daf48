package composer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"culturecompass/internal/route"
)

// MaxUploadBytes is the largest accepted route image.
const MaxUploadBytes = 5 << 20

const placeholderBase = "https://picsum.photos/seed/"

var (
	ErrImageTooLarge = errors.New("Please upload an image smaller than 5MB.")
	ErrNotImage      = errors.New("Please upload an image file.")
)

// ImageInput is everything the preview depends on.
type ImageInput struct {
	UploadURL string
	Link      route.Link
	StoredURL string
	Title     string
	Editing   bool
	ShareLike bool
}

type Image struct {
	URL  string `json:"url"`
	Hint string `json:"hint"`
}

// ResolveImage picks the display image for a draft. An upload wins, then a
// valid map link, then a stored placeholder when editing, then a title seed.
// The result is never empty.
func ResolveImage(in ImageInput) Image {
	if in.UploadURL != "" {
		return Image{URL: in.UploadURL, Hint: route.HintUserUploaded}
	}
	if u, ok := in.Link.URL(); ok && in.Link.Valid() {
		return Image{URL: placeholder(u, 600, 300), Hint: route.HintMapPreview}
	}
	if in.Editing && IsPlaceholder(in.StoredURL) {
		hint := route.HintCustom
		if in.Link.IsMapLink() {
			hint = route.HintMapPreview
		}
		return Image{URL: in.StoredURL, Hint: hint}
	}

	seed := strings.TrimSpace(in.Title)
	if seed == "" {
		seed = "default_route"
		if in.Editing {
			seed = "custom_route"
		}
	}
	hint := route.HintCustom
	if in.ShareLike {
		hint = route.HintGeneric
	}
	return Image{URL: placeholder(seed, 600, 400), Hint: hint}
}

// IsPlaceholder reports whether u was generated from a seed rather than uploaded.
func IsPlaceholder(u string) bool {
	return strings.HasPrefix(u, placeholderBase)
}

func placeholder(seed string, w, h int) string {
	escaped := strings.ReplaceAll(url.QueryEscape(seed), "+", "%20")
	return fmt.Sprintf("%s%s/%d/%d", placeholderBase, escaped, w, h)
}
