package services

import (
	"context"
	"fmt"
	"sync"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

type legKey struct{ from, to int }

// LegMatrix holds driving costs between every pair of route points. Index 0
// is the technician's start location; indices 1..n map to request jobs.
type LegMatrix struct {
	n     int
	costs map[legKey]ports.LegCost
}

// Cost returns the leg cost between two point indices.
func (m *LegMatrix) Cost(from, to int) (ports.LegCost, error) {
	if from == to {
		return ports.LegCost{}, nil
	}
	c, ok := m.costs[legKey{from, to}]
	if !ok {
		return ports.LegCost{}, fmt.Errorf("leg matrix: missing cost %d -> %d", from, to)
	}
	return c, nil
}

type matrixRowResult struct {
	origin int
	costs  []ports.LegCost
	err    error
}

// BuildLegMatrix prefetches all pairwise leg costs for a request with bounded
// concurrency. Provider failure is fatal: the optimizer cannot proceed
// without leg costs.
func BuildLegMatrix(
	ctx context.Context,
	req *domain.RouteRequest,
	provider ports.LegCostProvider,
) (*LegMatrix, error) {
	points := make([]domain.Coordinates, 0, 1+len(req.Jobs))
	points = append(points, req.StartLocation)
	for _, j := range req.Jobs {
		points = append(points, j.Location)
	}

	matrix := &LegMatrix{n: len(points), costs: make(map[legKey]ports.LegCost)}
	if len(points) < 2 {
		return matrix, nil
	}

	mp, hasMatrix := provider.(ports.LegCostMatrixProvider)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan matrixRowResult, len(points))
	var wg sync.WaitGroup

	for origin := range points {
		targets := make([]domain.Coordinates, 0, len(points)-1)
		for i, p := range points {
			if i != origin {
				targets = append(targets, p)
			}
		}

		wg.Add(1)
		go func(orig int, targets []domain.Coordinates) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			var costs []ports.LegCost
			if hasMatrix {
				var e error
				costs, e = mp.LegCosts(ctx, points[orig], targets)
				if e != nil {
					resultsCh <- matrixRowResult{origin: orig, err: fmt.Errorf("leg matrix: row from point %d: %w", orig, e)}
					cancel()
					return
				}
			} else {
				costs = make([]ports.LegCost, 0, len(targets))
				for _, t := range targets {
					c, e := provider.LegCost(ctx, points[orig], t)
					if e != nil {
						resultsCh <- matrixRowResult{origin: orig, err: fmt.Errorf("leg matrix: leg from point %d: %w", orig, e)}
						cancel()
						return
					}
					costs = append(costs, c)
				}
			}

			resultsCh <- matrixRowResult{origin: orig, costs: costs}
		}(origin, targets)
	}

	wg.Wait()
	close(resultsCh)

	var rowErr error
	for res := range resultsCh {
		if res.err != nil {
			if rowErr == nil {
				rowErr = res.err
			}
			continue
		}

		ti := 0
		for to := range points {
			if to == res.origin {
				continue
			}
			if ti >= len(res.costs) {
				return nil, fmt.Errorf("leg matrix: short row from point %d", res.origin)
			}
			matrix.costs[legKey{res.origin, to}] = res.costs[ti]
			ti++
		}
	}
	if rowErr != nil {
		return nil, rowErr
	}

	return matrix, nil
}
