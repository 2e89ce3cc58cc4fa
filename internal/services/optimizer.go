package services

import (
	"context"
	"fmt"
	"slices"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
	"field-route-service/internal/schedule"
)

// Optimize computes a technician's ordered daily route: visiting order,
// per-leg costs, arrival/departure timestamps, leave-by time and run totals.
//
// Stops are seeded per time-window bucket (Morning < Afternoon < Evening <
// Custom) with a greedy nearest-neighbor walk, then improved with a 2-opt
// pass that never moves a job across a bucket boundary. Time windows are soft
// preferences: the optimizer always produces a best-effort route and fails
// only when a leg-cost lookup does.
//
// The computation is deterministic for a fixed request and safe to invoke
// concurrently for different technicians or dates.
func Optimize(
	ctx context.Context,
	req *domain.RouteRequest,
	provider ports.LegCostProvider,
) (*domain.OptimizedRoute, error) {
	route := &domain.OptimizedRoute{
		TechnicianName: req.TechnicianName,
		StartAddress:   req.StartAddress,
		StartLocation:  req.StartLocation,
		Stops:          []domain.RouteStop{},
		ReturnToStart:  req.Constraints.ReturnToStart,
	}

	// Nothing to visit, nothing to return from.
	if len(req.Jobs) == 0 {
		return route, nil
	}

	matrix, err := BuildLegMatrix(ctx, req, provider)
	if err != nil {
		return nil, domain.NewOptimizationError("leg cost lookup failed", err)
	}

	order, segments, err := seedOrder(req.Jobs, matrix)
	if err != nil {
		return nil, domain.NewOptimizationError("seed ordering failed", err)
	}

	order, err = twoOptImprove(order, segments, matrix)
	if err != nil {
		return nil, domain.NewOptimizationError("improvement pass failed", err)
	}

	if err := buildTimeline(req, order, matrix, route); err != nil {
		return nil, domain.NewOptimizationError("timeline pass failed", err)
	}

	return route, nil
}

// segment is a half-open run [start, end) of tour positions belonging to one
// time-window bucket. The 2-opt pass only reverses inside a segment.
type segment struct{ start, end int }

// seedOrder builds the initial tour: jobs partitioned into buckets in fixed
// preference order, each bucket walked nearest-neighbor from the route tail.
// Returned order holds job indices; matrix point index is job index + 1.
// The custom bucket yields no segment: its clock order is fixed and must not
// be disturbed by the improvement pass.
func seedOrder(jobs []domain.RouteJob, matrix *LegMatrix) ([]int, []segment, error) {
	buckets := make([][]int, 4)
	for i, j := range jobs {
		r := j.Window.Bucket.Rank()
		buckets[r] = append(buckets[r], i)
	}

	// Custom jobs are visited in clock order, not by proximity.
	slices.SortFunc(buckets[domain.BucketCustom.Rank()], func(a, b int) int {
		ca, cb := jobs[a].Window.CustomTime, jobs[b].Window.CustomTime
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		if jobs[a].ProjectID < jobs[b].ProjectID {
			return -1
		}
		if jobs[a].ProjectID > jobs[b].ProjectID {
			return 1
		}
		return 0
	})

	order := make([]int, 0, len(jobs))
	segments := make([]segment, 0, 4)
	tail := 0 // matrix index of the last placed point; 0 is the start location

	for rank, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		if rank == domain.BucketCustom.Rank() {
			order = append(order, bucket...)
			tail = bucket[len(bucket)-1] + 1
			continue
		}

		segStart := len(order)
		remaining := slices.Clone(bucket)
		for len(remaining) > 0 {
			bestPos := -1
			var best ports.LegCost
			for pos, jobIdx := range remaining {
				c, err := matrix.Cost(tail, jobIdx+1)
				if err != nil {
					return nil, nil, err
				}
				if bestPos < 0 || legLess(c, jobs[jobIdx].ProjectID, best, jobs[remaining[bestPos]].ProjectID) {
					bestPos = pos
					best = c
				}
			}

			jobIdx := remaining[bestPos]
			order = append(order, jobIdx)
			tail = jobIdx + 1
			remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
		}

		segments = append(segments, segment{start: segStart, end: len(order)})
	}

	return order, segments, nil
}

// legLess reports whether candidate a beats the incumbent b. Ties break on
// distance, then project id, keeping the walk deterministic.
func legLess(a ports.LegCost, aID string, b ports.LegCost, bID string) bool {
	if a.DurationSeconds != b.DurationSeconds {
		return a.DurationSeconds < b.DurationSeconds
	}
	if a.DistanceMeters != b.DistanceMeters {
		return a.DistanceMeters < b.DistanceMeters
	}
	return aID < bID
}

// twoOptImprove reverses sub-sequences that reduce total driving time,
// restricted to single-bucket segments so scheduling preferences survive.
// Sweeps are capped at len(order)^2 to guarantee termination.
func twoOptImprove(order []int, segments []segment, matrix *LegMatrix) ([]int, error) {
	n := len(order)
	if n < 3 {
		return order, nil
	}

	current, err := tourSeconds(order, matrix)
	if err != nil {
		return nil, err
	}

	candidate := make([]int, n)
	improved := true
	for sweep := 0; improved && sweep < n*n; sweep++ {
		improved = false
		for _, seg := range segments {
			for i := seg.start; i < seg.end-1; i++ {
				for j := i + 1; j < seg.end; j++ {
					copy(candidate, order)
					slices.Reverse(candidate[i : j+1])

					// Leg costs are directional, so the whole tour is
					// re-priced rather than patching the two cut edges.
					cost, err := tourSeconds(candidate, matrix)
					if err != nil {
						return nil, err
					}
					if cost < current {
						copy(order, candidate)
						current = cost
						improved = true
					}
				}
			}
		}
	}

	return order, nil
}

// tourSeconds prices the outbound tour (start through last stop, no return leg).
func tourSeconds(order []int, matrix *LegMatrix) (int, error) {
	total := 0
	prev := 0
	for _, jobIdx := range order {
		c, err := matrix.Cost(prev, jobIdx+1)
		if err != nil {
			return 0, err
		}
		total += c.DurationSeconds
		prev = jobIdx + 1
	}
	return total, nil
}

// buildTimeline walks the final order once, anchoring the first arrival on
// the first stop's commitment time and deriving the leave-by time from it.
func buildTimeline(
	req *domain.RouteRequest,
	order []int,
	matrix *LegMatrix,
	route *domain.OptimizedRoute,
) error {
	first := req.Jobs[order[0]]
	commitment, err := schedule.CommitmentTime(first.Window, req.Date, req.Constraints.WorkStart)
	if err != nil {
		return fmt.Errorf("first stop commitment: %w", err)
	}

	firstLeg, err := matrix.Cost(0, order[0]+1)
	if err != nil {
		return err
	}

	leave := schedule.AddSeconds(commitment, -firstLeg.DurationSeconds)
	route.LeaveAt = &leave

	arrive := commitment
	prev := 0
	totalJobSeconds := 0

	for pos, jobIdx := range order {
		job := req.Jobs[jobIdx]
		leg, err := matrix.Cost(prev, jobIdx+1)
		if err != nil {
			return err
		}

		if pos > 0 {
			arrive = schedule.AddSeconds(route.Stops[pos-1].DepartAt, leg.DurationSeconds)
		}
		depart := schedule.AddMinutes(arrive, job.DurationMinutes)

		route.Stops = append(route.Stops, domain.RouteStop{
			Order:                      pos + 1,
			ProjectID:                  job.ProjectID,
			Address:                    job.Address,
			Location:                   job.Location,
			DrivingSecondsFromPrevious: leg.DurationSeconds,
			DrivingMetersFromPrevious:  leg.DistanceMeters,
			JobDurationMinutes:         job.DurationMinutes,
			ArriveAt:                   arrive,
			DepartAt:                   depart,
		})

		route.TotalDrivingSeconds += leg.DurationSeconds
		route.TotalDistanceMeters += leg.DistanceMeters
		totalJobSeconds += job.DurationMinutes * 60
		prev = jobIdx + 1
	}

	route.TotalJobSeconds = totalJobSeconds

	if req.Constraints.ReturnToStart {
		back, err := matrix.Cost(prev, 0)
		if err != nil {
			return err
		}
		returnAt := schedule.AddSeconds(route.Stops[len(route.Stops)-1].DepartAt, back.DurationSeconds)
		route.ReturnArriveAt = &returnAt
		route.TotalDrivingSeconds += back.DurationSeconds
		route.TotalDistanceMeters += back.DistanceMeters
	}

	return nil
}
