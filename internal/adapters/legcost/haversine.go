package legcost

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

const defaultSpeedKmh = 40.0

// HaversineEstimator derives leg costs from great-circle distance and an
// assumed average driving speed. It serves development runs and deterministic
// tests where road-network routing is unavailable.
type HaversineEstimator struct {
	speedKmh float64
}

func NewHaversineEstimator(speedKmh float64) *HaversineEstimator {
	if speedKmh <= 0 {
		speedKmh = defaultSpeedKmh
	}
	return &HaversineEstimator{speedKmh: speedKmh}
}

func (h *HaversineEstimator) LegCost(
	ctx context.Context,
	from, to domain.Coordinates,
) (ports.LegCost, error) {
	meters := geo.DistanceHaversine(
		orb.Point{from.Lng, from.Lat},
		orb.Point{to.Lng, to.Lat},
	)

	seconds := meters / (h.speedKmh * 1000 / 3600)

	return ports.LegCost{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(seconds)),
	}, nil
}
