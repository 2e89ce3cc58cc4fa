package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// RawJob is a job as submitted by the caller: an address plus optional
// pre-resolved coordinates.
type RawJob struct {
	ProjectID       string
	Address         string
	DurationMinutes int
	Window          domain.TimeWindow
	Location        *domain.Coordinates
}

// AssembleInput is the unvalidated material for one optimization run.
type AssembleInput struct {
	TechnicianID   string
	TechnicianName string
	StartAddress   string
	StartLocation  *domain.Coordinates
	Jobs           []RawJob
	Constraints    domain.Constraints
	Date           time.Time
}

type geocodeResult struct {
	index  int
	coords domain.Coordinates
	err    error
}

// AssembleRequest validates and packages a technician's day into a
// RouteRequest. Jobs whose address cannot be resolved are dropped with a
// warning rather than failing the run: a single bad address must not block
// the whole day's route. Returns domain.CodeInvalidInput for malformed input
// and domain.CodeNoJobs when no job survives assembly.
func AssembleRequest(
	ctx context.Context,
	in AssembleInput,
	geocoder ports.GeocodeProvider,
) (*domain.RouteRequest, []domain.SkippedJob, error) {
	if strings.TrimSpace(in.TechnicianID) == "" {
		return nil, nil, domain.NewInvalidInput("technician id must be non-empty", nil)
	}
	if err := in.Constraints.Validate(); err != nil {
		return nil, nil, domain.NewInvalidInput("invalid constraints", err)
	}
	if in.Date.IsZero() {
		return nil, nil, domain.NewInvalidInput("date is required", nil)
	}

	start, startAddr, err := resolveStart(ctx, in, geocoder)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{}, len(in.Jobs))
	for _, j := range in.Jobs {
		if strings.TrimSpace(j.ProjectID) == "" {
			return nil, nil, domain.NewInvalidInput("job project id must be non-empty", nil)
		}
		if _, ok := seen[j.ProjectID]; ok {
			return nil, nil, domain.NewInvalidInput(
				fmt.Sprintf("duplicate project id %q", j.ProjectID), nil)
		}
		seen[j.ProjectID] = struct{}{}

		if j.DurationMinutes <= 0 {
			return nil, nil, domain.NewInvalidInput(
				fmt.Sprintf("job %q duration must be positive", j.ProjectID), nil)
		}
		if err := j.Window.Validate(); err != nil {
			return nil, nil, domain.NewInvalidInput(
				fmt.Sprintf("job %q has invalid time window", j.ProjectID), err)
		}
		if j.Window.Bucket == domain.BucketCustom {
			if _, _, err := domain.ParseClock(j.Window.CustomTime); err != nil {
				return nil, nil, domain.NewInvalidInput(
					fmt.Sprintf("job %q has invalid custom time", j.ProjectID), err)
			}
		}
	}

	coords, skipped, err := resolveJobLocations(ctx, in.Jobs, geocoder)
	if err != nil {
		return nil, nil, err
	}

	jobs := make([]domain.RouteJob, 0, len(in.Jobs))
	for i, j := range in.Jobs {
		c, ok := coords[i]
		if !ok {
			continue
		}
		jobs = append(jobs, domain.RouteJob{
			ProjectID:       j.ProjectID,
			Location:        c,
			Address:         strings.TrimSpace(j.Address),
			DurationMinutes: j.DurationMinutes,
			Window:          j.Window,
		})
	}

	if len(jobs) == 0 {
		return nil, skipped, domain.NewNoJobs("no routable jobs after address resolution")
	}

	return &domain.RouteRequest{
		TechnicianID:   in.TechnicianID,
		TechnicianName: in.TechnicianName,
		StartLocation:  start,
		StartAddress:   startAddr,
		Jobs:           jobs,
		Constraints:    in.Constraints,
		Date:           in.Date,
	}, skipped, nil
}

// resolveStart yields the technician's start coordinates, geocoding the
// fallback address when no explicit location was given. Failure here is
// fatal: there is no route without a start.
func resolveStart(
	ctx context.Context,
	in AssembleInput,
	geocoder ports.GeocodeProvider,
) (domain.Coordinates, string, error) {
	addr := strings.TrimSpace(in.StartAddress)
	if in.StartLocation != nil {
		return *in.StartLocation, addr, nil
	}
	if addr == "" {
		return domain.Coordinates{}, "", domain.NewInvalidInput(
			"technician has no start location and no start address", nil)
	}

	c, err := geocoder.Resolve(ctx, addr)
	if err != nil {
		return domain.Coordinates{}, "", domain.NewInvalidInput(
			fmt.Sprintf("cannot resolve start address %q", addr), err)
	}
	return c, addr, nil
}

// resolveJobLocations geocodes jobs lacking coordinates with bounded
// concurrency. Resolution failures are collected as skipped jobs; only
// context cancellation aborts.
func resolveJobLocations(
	ctx context.Context,
	jobs []RawJob,
	geocoder ports.GeocodeProvider,
) (map[int]domain.Coordinates, []domain.SkippedJob, error) {
	coords := make(map[int]domain.Coordinates, len(jobs))
	skipped := make([]domain.SkippedJob, 0)

	pending := make([]int, 0, len(jobs))
	for i, j := range jobs {
		if j.Location != nil {
			coords[i] = *j.Location
			continue
		}
		if strings.TrimSpace(j.Address) == "" {
			skipped = append(skipped, domain.SkippedJob{
				ProjectID: j.ProjectID,
				Address:   j.Address,
				Reason:    "empty address",
			})
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return coords, skipped, nil
	}

	sem := make(chan struct{}, 5)
	resultsCh := make(chan geocodeResult, len(pending))
	var wg sync.WaitGroup

	for _, idx := range pending {
		wg.Add(1)
		go func(i int) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			c, err := geocoder.Resolve(ctx, strings.TrimSpace(jobs[i].Address))
			resultsCh <- geocodeResult{index: i, coords: c, err: err}
		}(idx)
	}

	wg.Wait()
	close(resultsCh)

	byIndex := make(map[int]geocodeResult, len(pending))
	for res := range resultsCh {
		byIndex[res.index] = res
	}

	// Walk pending in input order so the skipped list is deterministic.
	for _, i := range pending {
		res := byIndex[i]
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("assemble request: geocoding canceled: %w", ctx.Err())
			}
			skipped = append(skipped, domain.SkippedJob{
				ProjectID: jobs[i].ProjectID,
				Address:   jobs[i].Address,
				Reason:    res.err.Error(),
			})
			continue
		}
		coords[i] = res.coords
	}

	return coords, skipped, nil
}
