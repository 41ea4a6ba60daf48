package route

import "strings"

// MapsLinkPrefix is the only accepted form of a shared Google Maps link.
const MapsLinkPrefix = "https://maps.app.goo.gl/"

// Link is either None or an external map link.
type Link struct {
	url string
}

func NoLink() Link { return Link{} }

func MapLink(url string) Link { return Link{url: url} }

// LinkFrom maps an empty string to None.
func LinkFrom(url string) Link {
	url = strings.TrimSpace(url)
	if url == "" {
		return NoLink()
	}
	return MapLink(url)
}

func (l Link) URL() (string, bool) {
	return l.url, l.url != ""
}

func (l Link) IsMapLink() bool {
	return l.url != ""
}

// Valid reports whether the link is None or starts with MapsLinkPrefix.
func (l Link) Valid() bool {
	return l.url == "" || strings.HasPrefix(l.url, MapsLinkPrefix)
}

func (l Link) String() string {
	return l.url
}

// ValidMapsLink reports whether s is a non-empty link with the required prefix.
func ValidMapsLink(s string) bool {
	return s != "" && strings.HasPrefix(s, MapsLinkPrefix)
}
