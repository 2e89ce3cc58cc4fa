package dto

import "time"

type CoordinatesDTO struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type JobRequest struct {
	ProjectID       string          `json:"project_id" validate:"required"`
	Address         string          `json:"address"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
	TimeWindow      string          `json:"time_window" validate:"required,oneof=morning afternoon evening custom"`
	CustomTime      string          `json:"custom_time,omitempty" validate:"omitempty,datetime=15:04"`
	Location        *CoordinatesDTO `json:"location,omitempty"`
}

type ConstraintsRequest struct {
	ReturnToStart bool   `json:"return_to_start"`
	WorkStart     string `json:"work_start" validate:"required,datetime=15:04"`
	WorkEnd       string `json:"work_end" validate:"required,datetime=15:04"`
}

type OptimizeRequest struct {
	TechnicianID   string             `json:"technician_id" validate:"required"`
	TechnicianName string             `json:"technician_name"`
	StartAddress   string             `json:"start_address"`
	StartLocation  *CoordinatesDTO    `json:"start_location,omitempty"`
	Date           string             `json:"date" validate:"required,datetime=2006-01-02"`
	Timezone       string             `json:"timezone,omitempty"`
	Jobs           []JobRequest       `json:"jobs" validate:"required,min=1,dive"`
	Constraints    ConstraintsRequest `json:"constraints"`
}

type StopResponse struct {
	Order                      int            `json:"order"`
	ProjectID                  string         `json:"project_id"`
	Address                    string         `json:"address"`
	Location                   CoordinatesDTO `json:"location"`
	DrivingSecondsFromPrevious int            `json:"driving_seconds_from_previous"`
	DrivingMetersFromPrevious  int            `json:"driving_meters_from_previous"`
	JobDurationMinutes         int            `json:"job_duration_minutes"`
	ArriveAt                   time.Time      `json:"arrive_at"`
	DepartAt                   time.Time      `json:"depart_at"`
}

// WarningResponse reports a non-fatal per-job issue (the route is still valid).
type WarningResponse struct {
	Code      string `json:"code"`
	ProjectID string `json:"project_id"`
	Address   string `json:"address"`
	Message   string `json:"message"`
}

type OptimizeResponse struct {
	TechnicianName      string            `json:"technician_name"`
	StartAddress        string            `json:"start_address"`
	StartLocation       CoordinatesDTO    `json:"start_location"`
	Stops               []StopResponse    `json:"stops"`
	TotalDrivingSeconds int               `json:"total_driving_seconds"`
	TotalJobSeconds     int               `json:"total_job_seconds"`
	TotalDistanceMeters int               `json:"total_distance_meters"`
	LeaveAt             *time.Time        `json:"leave_at,omitempty"`
	ReturnToStart       bool              `json:"return_to_start"`
	ReturnArriveAt      *time.Time        `json:"return_arrive_at,omitempty"`
	DirectionsURL       string            `json:"directions_url,omitempty"`
	Warnings            []WarningResponse `json:"warnings,omitempty"`
}

// DirectionsRequest carries a previously returned route back in for URL
// rendering (the service persists nothing).
type DirectionsRequest struct {
	StartLocation CoordinatesDTO `json:"start_location"`
	ReturnToStart bool           `json:"return_to_start"`
	Stops         []StopResponse `json:"stops" validate:"required,min=1"`
}

type DirectionsResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Dropped-job warnings accompany NO_JOBS so the caller can tell the
	// user which addresses failed.
	Warnings []WarningResponse `json:"warnings,omitempty"`
}
