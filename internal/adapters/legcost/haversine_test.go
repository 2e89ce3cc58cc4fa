package legcost

import (
	"context"
	"testing"

	"field-route-service/internal/domain"
)

func TestHaversineEstimatorLegCost(t *testing.T) {
	h := NewHaversineEstimator(40)

	// One degree of longitude at the equator is roughly 111 km.
	cost, err := h.LegCost(context.Background(),
		domain.Coordinates{Lat: 0, Lng: 0},
		domain.Coordinates{Lat: 0, Lng: 1},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cost.DistanceMeters < 110_000 || cost.DistanceMeters > 112_000 {
		t.Fatalf("distance = %d meters", cost.DistanceMeters)
	}

	// At 40 km/h the trip should take distance/11.11 seconds.
	wantSeconds := int(float64(cost.DistanceMeters) / (40 * 1000.0 / 3600))
	if diff := cost.DurationSeconds - wantSeconds; diff < -1 || diff > 1 {
		t.Fatalf("duration = %d, want about %d", cost.DurationSeconds, wantSeconds)
	}
}

func TestHaversineEstimatorZeroLeg(t *testing.T) {
	h := NewHaversineEstimator(0) // falls back to the default speed

	p := domain.Coordinates{Lat: 33.45, Lng: -112.07}
	cost, err := h.LegCost(context.Background(), p, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.DistanceMeters != 0 || cost.DurationSeconds != 0 {
		t.Fatalf("expected zero cost, got %+v", cost)
	}
}
