package ports

import (
	"context"

	"field-route-service/internal/domain"
)

// Contract for resolving a free-text address into coordinates.
type GeocodeProvider interface {
	// Resolve returns coordinates for an address. A miss is reported by
	// wrapping domain.ErrAddressNotFound so callers can drop the job
	// instead of failing the run.
	Resolve(ctx context.Context, address string) (domain.Coordinates, error)
}
