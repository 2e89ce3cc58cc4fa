package legcost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"

	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/ors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// ORSLegCostProvider implements the LegCostProvider port (and its batched
// matrix extension) using the OpenRouteService matrix endpoint, with an
// optional redis cache in front. Safe for concurrent use.
type ORSLegCostProvider struct {
	client  *ors.Client
	cache   *cache.RedisLegCache
	profile string
}

func NewORSLegCostProvider(client *ors.Client, legCache *cache.RedisLegCache) (*ORSLegCostProvider, error) {
	if client == nil {
		return nil, errors.New("ORS leg cost provider: client is nil")
	}

	return &ORSLegCostProvider{
		client:  client,
		cache:   legCache,
		profile: "driving-car",
	}, nil
}

// Delegate to the batched path to reuse caching and matrix logic.
func (p *ORSLegCostProvider) LegCost(
	ctx context.Context,
	from, to domain.Coordinates,
) (ports.LegCost, error) {
	costs, err := p.LegCosts(ctx, from, []domain.Coordinates{to})
	if err != nil {
		return ports.LegCost{}, err
	}
	return costs[0], nil
}

// LegCosts computes driving costs from one origin to many destinations,
// in input order.
func (p *ORSLegCostProvider) LegCosts(
	ctx context.Context,
	from domain.Coordinates,
	to []domain.Coordinates,
) (_ []ports.LegCost, err error) {
	defer obs.Time(ctx, "ors.legcost.LegCosts")(&err)

	if len(to) == 0 {
		return []ports.LegCost{}, nil
	}

	out := make([]ports.LegCost, len(to))
	misses := make([]int, 0, len(to))

	// Check the leg cache before issuing external API calls.
	if p.cache != nil {
		for i, dest := range to {
			c, ok, err := p.cache.Get(ctx, from, dest)
			if err != nil {
				return nil, fmt.Errorf("leg cache read: %w", err)
			}
			if ok {
				out[i] = c
				continue
			}
			misses = append(misses, i)
		}
	} else {
		for i := range to {
			misses = append(misses, i)
		}
	}

	if len(misses) == 0 {
		return out, nil
	}

	missed := make([]domain.Coordinates, 0, len(misses))
	for _, i := range misses {
		missed = append(missed, to[i])
	}

	fetched, err := p.fetchMatrixRow(ctx, from, missed)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	for mi, i := range misses {
		out[i] = fetched[mi]
		if p.cache != nil {
			if err := p.cache.Put(ctx, from, to[i], fetched[mi]); err != nil {
				log.Printf("leg cache write failed: %v", err)
			}
		}
	}

	return out, nil
}

// fetchMatrixRow retrieves duration and distance from one origin to many
// destinations using a single matrix call.
func (p *ORSLegCostProvider) fetchMatrixRow(
	ctx context.Context,
	from domain.Coordinates,
	to []domain.Coordinates,
) ([]ports.LegCost, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", p.client.BaseURL(), p.profile)

	locations := make([][]float64, 0, 1+len(to))
	locations = append(locations, from.LngLat())
	for _, c := range to {
		locations = append(locations, c.LngLat())
	}

	destIdx := make([]int, 0, len(to))
	for i := 1; i < len(locations); i++ {
		destIdx = append(destIdx, i)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance", "duration"},
		Sources:      []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := p.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return p.client.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations),
		)
	}

	rowDistances := mr.Distances[0]
	rowDurations := mr.Durations[0]

	if len(rowDistances) != len(to) || len(rowDurations) != len(to) {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: distances=%d durations=%d destinations=%d",
			len(rowDistances), len(rowDurations), len(to),
		)
	}

	out := make([]ports.LegCost, 0, len(to))
	for i := range to {
		metersPtr := rowDistances[i]
		secondsPtr := rowDurations[i]

		if metersPtr == nil || secondsPtr == nil {
			return nil, fmt.Errorf("matrix returned invalid metrics for destination %d", i)
		}

		// ORS returns float metrics; round to nearest integer for domain consistency.
		out = append(out, ports.LegCost{
			DistanceMeters:  int(math.Round(*metersPtr)),
			DurationSeconds: int(math.Round(*secondsPtr)),
		})
	}

	return out, nil
}
