package domain

import "fmt"

// TimeBucket is a coarse time-of-day preference used to softly order stops
// before distance optimization. Buckets sort Morning < Afternoon < Evening < Custom.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
	BucketCustom    TimeBucket = "custom"
)

// Rank returns the fixed ordering position of the bucket.
func (b TimeBucket) Rank() int {
	switch b {
	case BucketMorning:
		return 0
	case BucketAfternoon:
		return 1
	case BucketEvening:
		return 2
	case BucketCustom:
		return 3
	}
	return 4
}

// TimeWindow is a job's preferred visiting time. CustomTime holds an "HH:MM"
// clock time and must be set iff Bucket is BucketCustom.
type TimeWindow struct {
	Bucket     TimeBucket
	CustomTime string
}

func (w TimeWindow) Validate() error {
	switch w.Bucket {
	case BucketMorning, BucketAfternoon, BucketEvening:
		return nil
	case BucketCustom:
		if w.CustomTime == "" {
			return fmt.Errorf("time window: custom bucket requires a custom time")
		}
		return nil
	}
	return fmt.Errorf("time window: unknown bucket %q", w.Bucket)
}

// RouteJob is a single job to visit. Location is produced by the coordinate
// resolver; Address is display-only. DurationMinutes is the on-site time.
type RouteJob struct {
	ProjectID       string
	Location        Coordinates
	Address         string
	DurationMinutes int
	Window          TimeWindow
}
