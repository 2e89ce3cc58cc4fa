package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/ors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements the GeocodeProvider port using OpenRouteService
// (/geocode/search) with an optional persistent cache in front.
// Safe for concurrent use.
type ORSGeocoder struct {
	client  *ors.Client
	cache   *cache.SQLGeocodeCache
	country string
}

func NewORSGeocoder(client *ors.Client, geocodeCache *cache.SQLGeocodeCache) (*ORSGeocoder, error) {
	if client == nil {
		return nil, errors.New("ORS geocoder: client is nil")
	}

	return &ORSGeocoder{
		client:  client,
		cache:   geocodeCache,
		country: "US",
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolve turns a free-text address into coordinates. A miss wraps
// domain.ErrAddressNotFound so the assembler can drop the job.
func (g *ORSGeocoder) Resolve(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocode.Resolve")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("resolve address: address must be non-empty")
	}

	if g.cache != nil {
		c, ok, err := g.cache.Get(ctx, norm)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("resolve address: geocode cache: %w", err)
		}
		if ok {
			return c, nil
		}
	}

	endpoint := g.client.BaseURL() + "/geocode/search"
	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("boundary.country", g.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: %w", norm, domain.ErrAddressNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	result := domain.Coordinates{Lng: coords[0], Lat: coords[1]}

	if g.cache != nil {
		if err := g.cache.Put(ctx, norm, result); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return result, nil
}
