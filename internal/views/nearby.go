package views

import (
	"sort"

	"culturecompass/internal/route"
	"culturecompass/internal/shared/geo"
)

const DefaultRadiusKm = 5.0

type NearbyRoute struct {
	Route      route.Route `json:"route"`
	DistanceKm float64     `json:"distanceKm"`
}

// Nearby returns routes whose start coordinates lie within radiusKm of the
// given point, closest first. Routes without coordinates are skipped.
func Nearby(routes []route.Route, lat, lng, radiusKm float64) []NearbyRoute {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	out := []NearbyRoute{}
	for _, r := range routes {
		if r.StartPointCoords == nil {
			continue
		}
		d := geo.HaversineKm(lat, lng, r.StartPointCoords.Lat, r.StartPointCoords.Lng)
		if d <= radiusKm {
			out = append(out, NearbyRoute{Route: r, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
