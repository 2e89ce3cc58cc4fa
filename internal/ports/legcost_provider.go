package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Driving duration and distance for a single leg between two coordinates.
type LegCost struct {
	DurationSeconds int
	DistanceMeters  int
}

// Contract for retrieving the driving cost of one leg.
type LegCostProvider interface {
	// Return driving duration and distance from one coordinate to another.
	LegCost(ctx context.Context, from, to domain.Coordinates) (LegCost, error)
}

// Optional extension of LegCostProvider that supports batched lookups.
type LegCostMatrixProvider interface {
	LegCostProvider
	// Return leg costs from one origin to many destinations, in input order.
	LegCosts(ctx context.Context, from domain.Coordinates, to []domain.Coordinates) ([]LegCost, error)
}
