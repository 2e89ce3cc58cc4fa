package legcost

import (
	"context"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// MockLegCoster computes leg costs with a caller-supplied function.
type MockLegCoster struct {
	Fn func(from, to domain.Coordinates) (ports.LegCost, error)
}

func (m *MockLegCoster) LegCost(ctx context.Context, from, to domain.Coordinates) (ports.LegCost, error) {
	return m.Fn(from, to)
}

// MockMatrixLegCoster is MockLegCoster with the batched extension, for
// exercising the matrix fast path.
type MockMatrixLegCoster struct {
	MockLegCoster
}

func (m *MockMatrixLegCoster) LegCosts(ctx context.Context, from domain.Coordinates, to []domain.Coordinates) ([]ports.LegCost, error) {
	out := make([]ports.LegCost, 0, len(to))
	for _, dest := range to {
		c, err := m.Fn(from, dest)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
