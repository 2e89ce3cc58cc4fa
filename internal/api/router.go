package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"field-route-service/internal/api/handlers"
	"field-route-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(geocoder ports.GeocodeProvider, legCosts ports.LegCostProvider, defaultTimezone string) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{
		Geocoder:        geocoder,
		LegCosts:        legCosts,
		DefaultTimezone: defaultTimezone,
		Validate:        validator.New(),
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/optimize-route", routeHandler.Optimize)
	mux.HandleFunc("/optimize-route/directions-url", routeHandler.DirectionsURL)

	return requestIDMiddleware(loggingMiddleware(mux))
}
