package domain

import (
	"fmt"
	"time"
)

// ParseClock parses a zero-padded "HH:MM" clock string.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("parse clock: %q is not HH:MM", s)
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse clock: %q is not HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("parse clock: %q out of range", s)
	}
	return hour, minute, nil
}

// Constraints bound a single day's route.
type Constraints struct {
	ReturnToStart bool
	WorkStart     string
	WorkEnd       string
}

func (c Constraints) Validate() error {
	sh, sm, err := ParseClock(c.WorkStart)
	if err != nil {
		return fmt.Errorf("constraints: work start: %w", err)
	}
	eh, em, err := ParseClock(c.WorkEnd)
	if err != nil {
		return fmt.Errorf("constraints: work end: %w", err)
	}
	if sh*60+sm >= eh*60+em {
		return fmt.Errorf("constraints: work start %q must be before work end %q", c.WorkStart, c.WorkEnd)
	}
	return nil
}

// RouteRequest is one technician's day handed to the optimizer. It is created
// fresh per optimization call and never mutated after construction.
type RouteRequest struct {
	TechnicianID   string
	TechnicianName string
	StartLocation  Coordinates
	StartAddress   string
	Jobs           []RouteJob
	Constraints    Constraints
	// Date anchors all computed timestamps; it carries the technician's
	// timezone so clock math stays correct across DST boundaries.
	Date time.Time
}

// RouteStop is one visited job augmented with computed schedule fields.
// Produced only by the optimizer; immutable once produced.
type RouteStop struct {
	Order                      int
	ProjectID                  string
	Address                    string
	Location                   Coordinates
	DrivingSecondsFromPrevious int
	DrivingMetersFromPrevious  int
	JobDurationMinutes         int
	ArriveAt                   time.Time
	DepartAt                   time.Time
}

// OptimizedRoute is the optimizer's output: ordered stops plus run totals.
// It is planning data only and is not persisted by this service.
type OptimizedRoute struct {
	TechnicianName      string
	StartAddress        string
	StartLocation       Coordinates
	Stops               []RouteStop
	TotalDrivingSeconds int
	TotalJobSeconds     int
	TotalDistanceMeters int
	LeaveAt             *time.Time
	ReturnToStart       bool
	ReturnArriveAt      *time.Time
}
