package geocode

import (
	"context"
	"fmt"

	"field-route-service/internal/domain"
)

// MockGeocoder resolves addresses from a fixed table; unknown addresses
// report domain.ErrAddressNotFound.
type MockGeocoder struct {
	m map[string]domain.Coordinates
}

func NewMockGeocoder(known map[string]domain.Coordinates) *MockGeocoder {
	m := make(map[string]domain.Coordinates, len(known))
	for addr, c := range known {
		m[addr] = c
	}
	return &MockGeocoder{m: m}
}

func (g *MockGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	c, ok := g.m[address]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("mock geocoder: %q: %w", address, domain.ErrAddressNotFound)
	}
	return c, nil
}
