package capacity

import (
	"time"

	"github.com/garnizeh/capacity/pkg/models"
)

// Window is a closed time interval carrying an allocation weight.
type Window struct {
	Start  time.Time
	End    time.Time
	Weight int
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and [bStart, bEnd]
// share at least one instant. Touching endpoints overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// OverlappingWeightSum sums the weight of every window in existing that overlaps candidate.
func OverlappingWeightSum(candidate Window, existing []Window) int {
	sum := 0
	for _, w := range existing {
		if Overlaps(candidate.Start, candidate.End, w.Start, w.End) {
			sum += w.Weight
		}
	}
	return sum
}

// PointInTimeSum sums the weight of every window containing at.
func PointInTimeSum(at time.Time, existing []Window) int {
	return OverlappingWeightSum(Window{Start: at, End: at}, existing)
}

// ActiveWindows converts the active, non-deleted assignments into weighted windows.
func ActiveWindows(assignments []models.Assignment) []Window {
	out := make([]Window, 0, len(assignments))
	for _, a := range assignments {
		if a.Status != models.AssignmentActive || a.Deleted() {
			continue
		}
		out = append(out, Window{Start: a.StartDate, End: a.EndDate, Weight: a.AllocationPercentage})
	}
	return out
}
