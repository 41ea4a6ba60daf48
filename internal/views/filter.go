package views

import (
	"strings"

	"culturecompass/internal/route"
)

// Search keeps routes whose title, description or any tag contains q,
// ignoring case. A blank query keeps everything.
func Search(routes []route.Route, q string) []route.Route {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return routes
	}
	out := make([]route.Route, 0, len(routes))
	for _, r := range routes {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r route.Route, q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
