package analytics

import (
	"github.com/garnizeh/capacity/pkg/models"
)

// RosterEntry is an engineer with their committed allocation.
type RosterEntry struct {
	models.Engineer
	CurrentAllocation int `json:"currentAllocation"`
	AvailableCapacity int `json:"availableCapacity"`
}

// Roster pairs each engineer with the snapshot sum of their active assignments.
// AvailableCapacity never goes below 0 here; the dashboards report the raw value.
func Roster(engineers []models.Engineer, assignments []models.Assignment) []RosterEntry {
	byEngineer := make(map[int64][]models.Assignment)
	for _, a := range assignments {
		byEngineer[a.EngineerID] = append(byEngineer[a.EngineerID], a)
	}

	out := make([]RosterEntry, 0, len(engineers))
	for _, e := range engineers {
		current := snapshotSum(byEngineer[e.ID])
		out = append(out, RosterEntry{
			Engineer:          e,
			CurrentAllocation: current,
			AvailableCapacity: max(0, e.Capacity()-current),
		})
	}
	return out
}
