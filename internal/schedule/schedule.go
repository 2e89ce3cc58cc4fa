// Package schedule owns the time-window bucket to clock-time mapping and all
// timestamp arithmetic, keeping calendar concerns out of the route ordering
// logic. Every timestamp it produces carries an explicit time.Location.
package schedule

import (
	"fmt"
	"time"

	"field-route-service/internal/domain"
)

// Conventional clock times implied by the non-custom buckets. Morning maps to
// the working-day start and is resolved per request.
const (
	afternoonClock = "12:00"
	eveningClock   = "16:00"
)

// At places an "HH:MM" clock time on the given date, in the date's location.
func At(date time.Time, clock string) (time.Time, error) {
	h, m, err := domain.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, date.Location()), nil
}

// CommitmentTime returns the clock time a job's preferred window implies on
// the request date. workStart is the "HH:MM" start of the working day and
// anchors the Morning bucket.
func CommitmentTime(w domain.TimeWindow, date time.Time, workStart string) (time.Time, error) {
	switch w.Bucket {
	case domain.BucketMorning:
		return At(date, workStart)
	case domain.BucketAfternoon:
		return At(date, afternoonClock)
	case domain.BucketEvening:
		return At(date, eveningClock)
	case domain.BucketCustom:
		return At(date, w.CustomTime)
	}
	return time.Time{}, fmt.Errorf("commitment time: unknown bucket %q", w.Bucket)
}

// AddMinutes advances a timestamp by whole minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// AddSeconds advances a timestamp by whole seconds.
func AddSeconds(t time.Time, seconds int) time.Time {
	return t.Add(time.Duration(seconds) * time.Second)
}
