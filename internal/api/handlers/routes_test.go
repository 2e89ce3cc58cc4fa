package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"field-route-service/internal/adapters/geocode"
	"field-route-service/internal/adapters/legcost"
	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

func testRouteHandler(known map[string]domain.Coordinates) *RouteHandler {
	return &RouteHandler{
		Geocoder: geocode.NewMockGeocoder(known),
		LegCosts: &legcost.MockLegCoster{Fn: func(from, to domain.Coordinates) (ports.LegCost, error) {
			d := math.Hypot(to.Lat-from.Lat, to.Lng-from.Lng)
			return ports.LegCost{
				DurationSeconds: int(math.Round(d * 600)),
				DistanceMeters:  int(math.Round(d * 1000)),
			}, nil
		}},
		DefaultTimezone: "UTC",
		Validate:        validator.New(),
	}
}

const optimizeBody = `{
	"technician_id": "tech-1",
	"technician_name": "Sam",
	"start_address": "1 Depot Way",
	"start_location": {"lat": 0, "lng": 0},
	"date": "2026-03-02",
	"jobs": [
		{"project_id": "p-far", "address": "9 Far St", "duration_minutes": 30, "time_window": "morning", "location": {"lat": 0, "lng": 2}},
		{"project_id": "p-near", "address": "1 Near St", "duration_minutes": 60, "time_window": "morning", "location": {"lat": 0, "lng": 1}},
		{"project_id": "p-lost", "address": "999 Nowhere Ln", "duration_minutes": 15, "time_window": "evening"}
	],
	"constraints": {"return_to_start": true, "work_start": "08:00", "work_end": "18:00"}
}`

func TestOptimizeEndpoint(t *testing.T) {
	h := testRouteHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/optimize-route", strings.NewReader(optimizeBody))
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(res.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(res.Stops))
	}
	if res.Stops[0].ProjectID != "p-near" || res.Stops[1].ProjectID != "p-far" {
		t.Fatalf("unexpected order: %q, %q", res.Stops[0].ProjectID, res.Stops[1].ProjectID)
	}
	if res.Stops[0].Order != 1 || res.Stops[1].Order != 2 {
		t.Fatalf("orders not contiguous: %+v", res.Stops)
	}

	if len(res.Warnings) != 1 || res.Warnings[0].ProjectID != "p-lost" || res.Warnings[0].Code != "ADDRESS_UNRESOLVED" {
		t.Fatalf("expected one unresolved-address warning, got %+v", res.Warnings)
	}

	if res.LeaveAt == nil {
		t.Fatal("expected a leave time")
	}
	if res.ReturnArriveAt == nil {
		t.Fatal("expected a return arrival time")
	}
	if res.DirectionsURL == "" || !strings.Contains(res.DirectionsURL, "google.com/maps/dir") {
		t.Fatalf("directions url = %q", res.DirectionsURL)
	}
}

func TestOptimizeEndpointNoJobs(t *testing.T) {
	h := testRouteHandler(nil)

	body := `{
		"technician_id": "tech-1",
		"start_location": {"lat": 0, "lng": 0},
		"date": "2026-03-02",
		"jobs": [{"project_id": "p-1", "address": "999 Nowhere Ln", "duration_minutes": 30, "time_window": "morning"}],
		"constraints": {"work_start": "08:00", "work_end": "18:00"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/optimize-route", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Code != string(domain.CodeNoJobs) {
		t.Fatalf("code = %q, want NO_JOBS", res.Code)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Address != "999 Nowhere Ln" {
		t.Fatalf("expected the dropped address in the error, got %+v", res.Warnings)
	}
}

func TestOptimizeEndpointRejectsBadInput(t *testing.T) {
	h := testRouteHandler(nil)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"unknown field", `{"technician_id": "t", "bogus": true}`},
		{"missing jobs", `{"technician_id": "t", "date": "2026-03-02", "jobs": [], "constraints": {"work_start": "08:00", "work_end": "18:00"}}`},
		{"bad bucket", `{"technician_id": "t", "date": "2026-03-02", "jobs": [{"project_id": "p", "duration_minutes": 30, "time_window": "midnight"}], "constraints": {"work_start": "08:00", "work_end": "18:00"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/optimize-route", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Optimize(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var res dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if res.Code != string(domain.CodeInvalidInput) {
				t.Fatalf("code = %q, want INVALID_INPUT", res.Code)
			}
		})
	}
}

func TestOptimizeEndpointProviderFailureKeepsWarnings(t *testing.T) {
	h := testRouteHandler(nil)
	h.LegCosts = &legcost.MockLegCoster{Fn: func(from, to domain.Coordinates) (ports.LegCost, error) {
		return ports.LegCost{}, errors.New("provider down")
	}}

	req := httptest.NewRequest(http.MethodPost, "/optimize-route", strings.NewReader(optimizeBody))
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Code != string(domain.CodeOptimizationError) {
		t.Fatalf("code = %q, want OPTIMIZATION_ERROR", res.Code)
	}

	// Jobs dropped during assembly still surface when optimization fails.
	if len(res.Warnings) != 1 || res.Warnings[0].ProjectID != "p-lost" {
		t.Fatalf("expected the dropped job in the error, got %+v", res.Warnings)
	}
}

func TestDirectionsURLEndpoint(t *testing.T) {
	h := testRouteHandler(nil)

	body := `{
		"start_location": {"lat": 0, "lng": 0},
		"return_to_start": false,
		"stops": [
			{"order": 1, "location": {"lat": 0, "lng": 1}},
			{"order": 2, "location": {"lat": 0, "lng": 2}}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/optimize-route/directions-url", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.DirectionsURL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.DirectionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(res.URL, "origin=0.000000%2C0.000000") {
		t.Fatalf("unexpected url: %q", res.URL)
	}
}

func TestOptimizeEndpointMethodNotAllowed(t *testing.T) {
	h := testRouteHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/optimize-route", nil)
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("Allow = %q", rec.Header().Get("Allow"))
	}
}
