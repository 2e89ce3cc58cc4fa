package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
	"field-route-service/internal/services"
)

// RouteHandler exposes the route optimization endpoints.
type RouteHandler struct {
	Geocoder        ports.GeocodeProvider
	LegCosts        ports.LegCostProvider
	DefaultTimezone string
	Validate        *validator.Validate
}

// Optimize assembles the day's jobs, computes the optimized route and
// renders it with warnings for any dropped jobs.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, string(domain.CodeInvalidInput), "method not allowed")
		return
	}

	var req dto.OptimizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Validate.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), err.Error())
		return
	}

	loc, err := h.loadLocation(req.Timezone)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), "unknown timezone")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), "invalid date")
		return
	}

	in := toAssembleInput(req, date)

	request, skipped, err := services.AssembleRequest(r.Context(), in, h.Geocoder)
	if err != nil {
		writeDomainError(w, r, err, skipped)
		return
	}

	route, err := services.Optimize(r.Context(), request, h.LegCosts)
	if err != nil {
		writeDomainError(w, r, err, skipped)
		return
	}

	res := toOptimizeResponse(route, skipped)

	// Embed the directions URL so callers need no second round trip.
	if url, err := services.DirectionsURL(route); err == nil {
		res.DirectionsURL = url
	}

	writeJSON(w, r, http.StatusOK, res)
}

// DirectionsURL renders a previously returned route as an external map URL.
func (h *RouteHandler) DirectionsURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, string(domain.CodeInvalidInput), "method not allowed")
		return
	}

	var req dto.DirectionsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Validate.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), err.Error())
		return
	}

	route := &domain.OptimizedRoute{
		StartLocation: domain.Coordinates{Lat: req.StartLocation.Lat, Lng: req.StartLocation.Lng},
		ReturnToStart: req.ReturnToStart,
	}
	for _, s := range req.Stops {
		route.Stops = append(route.Stops, domain.RouteStop{
			Location: domain.Coordinates{Lat: s.Location.Lat, Lng: s.Location.Lng},
		})
	}

	url, err := services.DirectionsURL(route)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DirectionsResponse{URL: url})
}

func (h *RouteHandler) loadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		tz = h.DefaultTimezone
	}
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, string(domain.CodeInvalidInput), "body must contain only one JSON object")
		return false
	}
	return true
}

func toAssembleInput(req dto.OptimizeRequest, date time.Time) services.AssembleInput {
	in := services.AssembleInput{
		TechnicianID:   req.TechnicianID,
		TechnicianName: req.TechnicianName,
		StartAddress:   req.StartAddress,
		Date:           date,
		Constraints: domain.Constraints{
			ReturnToStart: req.Constraints.ReturnToStart,
			WorkStart:     req.Constraints.WorkStart,
			WorkEnd:       req.Constraints.WorkEnd,
		},
	}
	if req.StartLocation != nil {
		in.StartLocation = &domain.Coordinates{Lat: req.StartLocation.Lat, Lng: req.StartLocation.Lng}
	}

	for _, j := range req.Jobs {
		raw := services.RawJob{
			ProjectID:       j.ProjectID,
			Address:         j.Address,
			DurationMinutes: j.DurationMinutes,
			Window: domain.TimeWindow{
				Bucket:     domain.TimeBucket(j.TimeWindow),
				CustomTime: j.CustomTime,
			},
		}
		if j.Location != nil {
			raw.Location = &domain.Coordinates{Lat: j.Location.Lat, Lng: j.Location.Lng}
		}
		in.Jobs = append(in.Jobs, raw)
	}

	return in
}

func toOptimizeResponse(route *domain.OptimizedRoute, skipped []domain.SkippedJob) dto.OptimizeResponse {
	res := dto.OptimizeResponse{
		TechnicianName:      route.TechnicianName,
		StartAddress:        route.StartAddress,
		StartLocation:       dto.CoordinatesDTO{Lat: route.StartLocation.Lat, Lng: route.StartLocation.Lng},
		Stops:               make([]dto.StopResponse, 0, len(route.Stops)),
		TotalDrivingSeconds: route.TotalDrivingSeconds,
		TotalJobSeconds:     route.TotalJobSeconds,
		TotalDistanceMeters: route.TotalDistanceMeters,
		LeaveAt:             route.LeaveAt,
		ReturnToStart:       route.ReturnToStart,
		ReturnArriveAt:      route.ReturnArriveAt,
	}

	for _, s := range route.Stops {
		res.Stops = append(res.Stops, dto.StopResponse{
			Order:                      s.Order,
			ProjectID:                  s.ProjectID,
			Address:                    s.Address,
			Location:                   dto.CoordinatesDTO{Lat: s.Location.Lat, Lng: s.Location.Lng},
			DrivingSecondsFromPrevious: s.DrivingSecondsFromPrevious,
			DrivingMetersFromPrevious:  s.DrivingMetersFromPrevious,
			JobDurationMinutes:         s.JobDurationMinutes,
			ArriveAt:                   s.ArriveAt,
			DepartAt:                   s.DepartAt,
		})
	}

	for _, sk := range skipped {
		res.Warnings = append(res.Warnings, dto.WarningResponse{
			Code:      "ADDRESS_UNRESOLVED",
			ProjectID: sk.ProjectID,
			Address:   sk.Address,
			Message:   sk.Reason,
		})
	}

	return res
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error, skipped []domain.SkippedJob) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		log.Printf("optimize route failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, string(domain.CodeOptimizationError), "internal server error")
		return
	}

	status := http.StatusBadRequest
	switch derr.Code {
	case domain.CodeNoJobs:
		status = http.StatusUnprocessableEntity
	case domain.CodeOptimizationError:
		// Likely a transient provider outage; the caller may retry.
		status = http.StatusBadGateway
		log.Printf("optimize route failed: %v", err)
	}

	res := dto.ErrorResponse{Code: string(derr.Code), Message: derr.Message}
	for _, sk := range skipped {
		res.Warnings = append(res.Warnings, dto.WarningResponse{
			Code:      "ADDRESS_UNRESOLVED",
			ProjectID: sk.ProjectID,
			Address:   sk.Address,
			Message:   sk.Reason,
		})
	}
	writeJSON(w, r, status, res)
}
