package services

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"field-route-service/internal/domain"
)

const directionsBaseURL = "https://www.google.com/maps/dir/"

// DirectionsURL renders an optimized route as a multi-stop driving-directions
// URL for an external map application: origin is the start location,
// waypoints follow stop order, and the destination is the last stop (or the
// start again when the route returns to base). Pure formatter, no side effects.
func DirectionsURL(route *domain.OptimizedRoute) (string, error) {
	if route == nil || len(route.Stops) == 0 {
		return "", errors.New("directions url: route has no stops")
	}

	points := make([]string, 0, len(route.Stops))
	for _, s := range route.Stops {
		points = append(points, formatPoint(s.Location))
	}

	origin := formatPoint(route.StartLocation)
	destination := points[len(points)-1]
	waypoints := points[:len(points)-1]
	if route.ReturnToStart {
		destination = origin
		waypoints = points
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("travelmode", "driving")
	q.Set("origin", origin)
	q.Set("destination", destination)
	if len(waypoints) > 0 {
		q.Set("waypoints", strings.Join(waypoints, "|"))
	}

	return directionsBaseURL + "?" + q.Encode(), nil
}

func formatPoint(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 6, 64)
}
