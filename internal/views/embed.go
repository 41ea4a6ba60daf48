package views

import (
	"net/url"
	"strings"

	"culturecompass/internal/route"
)

const embedBase = "https://www.google.com/maps/embed/v1/"

type MapView struct {
	ExternalURL string `json:"externalUrl"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	Embeddable  bool   `json:"embeddable"`
}

// Embed derives an iframe source for a stored map link. Links that cannot
// be embedded keep only the external URL. A route without a link has no map.
func Embed(link route.Link, apiKey string) *MapView {
	raw, ok := link.URL()
	if !ok {
		return nil
	}
	view := &MapView{ExternalURL: raw}
	if src := embedSource(raw, apiKey); src != "" {
		view.EmbedURL = src
		view.Embeddable = true
	}
	return view
}

func embedSource(raw, apiKey string) string {
	switch {
	case strings.Contains(raw, "/maps/d/viewer"):
		return strings.Replace(raw, "/maps/d/viewer", "/maps/d/embed", 1)
	case strings.Contains(raw, "/maps/d/edit"):
		return strings.Replace(raw, "/maps/d/edit", "/maps/d/embed", 1)
	case strings.Contains(raw, "/maps/embed/"):
		return raw
	case !strings.Contains(raw, "/maps/"):
		return ""
	}

	before, after, found := strings.Cut(raw, "/@")
	if !found {
		return ""
	}
	if strings.Contains(before, "/place/") {
		name := before[strings.LastIndex(before, "/")+1:]
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
		name = strings.ReplaceAll(name, "+", " ")
		q := url.Values{"key": {apiKey}, "q": {name}}
		return embedBase + "place?" + q.Encode()
	}

	parts := strings.Split(after, ",")
	if len(parts) < 3 {
		return ""
	}
	zoom := strings.TrimSuffix(strings.SplitN(parts[2], "/", 2)[0], "z")
	q := url.Values{"key": {apiKey}, "center": {parts[0] + "," + parts[1]}, "zoom": {zoom}}
	return embedBase + "view?" + q.Encode()
}
