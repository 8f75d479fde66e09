package schedule

import (
	"fmt"
	"iter"
	"time"

	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// EndTime computes the end of an appointment from its start and a duration in
// minutes. Minute-level precision; rolls over hour and day boundaries.
func EndTime(start time.Time, durationMinutes int) (time.Time, error) {
	if durationMinutes <= 0 {
		return time.Time{}, shared.NewValidationError(
			fmt.Sprintf("duration must be positive, got %d minutes", durationMinutes))
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute), nil
}

// Slots returns a lazy, restartable sequence of candidate start times between
// dayStart (inclusive) and dayEnd (exclusive) in stepMinutes increments. The
// sequence knows nothing about existing bookings; filtering against the
// worker's calendar happens elsewhere.
func Slots(dayStart, dayEnd time.Time, stepMinutes int) (iter.Seq[time.Time], error) {
	if stepMinutes <= 0 {
		return nil, shared.NewValidationError(
			fmt.Sprintf("slot step must be positive, got %d minutes", stepMinutes))
	}
	step := time.Duration(stepMinutes) * time.Minute
	return func(yield func(time.Time) bool) {
		for t := dayStart; t.Before(dayEnd); t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}, nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. The single general test subsumes start-during,
// end-during and containment; intervals that merely touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
