package analytics

import (
	"sort"
	"time"

	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/pkg/models"
)

// planningCapacity is the capacity every engineer is measured against in the
// planning view, whatever their MaxCapacity. Part-time engineers therefore look
// less utilized here than in the dashboard views.
const planningCapacity = 100

// UnknownProject names assignments whose project is not in the snapshot.
const UnknownProject = "Unknown Project"

type PlanningClass string

const (
	PlanningOver  PlanningClass = "overUtilized"
	PlanningFull  PlanningClass = "fullyUtilized"
	PlanningUnder PlanningClass = "underUtilized"
	// PlanningNone covers [50, 80): counted in no bucket.
	PlanningNone PlanningClass = ""
)

// ClassifyPlanning buckets a planning-view utilization: over above 100, full in
// [80, 100], under below 50. Anything else belongs to no bucket.
func ClassifyPlanning(util int) PlanningClass {
	switch {
	case util > 100:
		return PlanningOver
	case util >= 80:
		return PlanningFull
	case util < 50:
		return PlanningUnder
	default:
		return PlanningNone
	}
}

type PlannedAssignment struct {
	ProjectName string    `json:"projectName"`
	Allocation  int       `json:"allocation"`
	EndDate     time.Time `json:"endDate"`
}

type PlanningRow struct {
	EngineerID            int64               `json:"id"`
	Name                  string              `json:"name"`
	Department            string              `json:"department,omitempty"`
	Seniority             models.Seniority    `json:"seniority,omitempty"`
	MaxCapacity           int                 `json:"maxCapacity"`
	CurrentAllocation     int                 `json:"currentAllocation"`
	AvailableCapacity     int                 `json:"availableCapacity"`
	UtilizationPercentage int                 `json:"utilizationPercentage"`
	Class                 PlanningClass       `json:"class,omitempty"`
	Assignments           []PlannedAssignment `json:"assignments"`
}

type PlanningInsights struct {
	OverUtilized           int `json:"overUtilized"`
	FullyUtilized          int `json:"fullyUtilized"`
	UnderUtilized          int `json:"underUtilized"`
	TotalAvailableCapacity int `json:"totalAvailableCapacity"`
}

type PlanningReport struct {
	Engineers []PlanningRow    `json:"engineers"`
	Insights  PlanningInsights `json:"insights"`
}

// CapacityPlanning rates every engineer by the snapshot sum of their active
// assignments against a fixed capacity of 100. Rows are ordered by utilization,
// highest first, keeping snapshot order on ties.
func CapacityPlanning(s *snapshot.Snapshot) PlanningReport {
	rows := make([]PlanningRow, 0, len(s.Engineers))
	for _, e := range s.Engineers {
		var planned []PlannedAssignment
		current := 0
		for _, a := range s.AssignmentsFor(e.ID) {
			if a.Status != models.AssignmentActive {
				continue
			}
			current += a.AllocationPercentage
			name := s.ProjectName(a.ProjectID)
			if name == "" {
				name = UnknownProject
			}
			planned = append(planned, PlannedAssignment{ProjectName: name, Allocation: a.AllocationPercentage, EndDate: a.EndDate})
		}
		if planned == nil {
			planned = []PlannedAssignment{}
		}

		util := percent(current, planningCapacity)
		rows = append(rows, PlanningRow{
			EngineerID:            e.ID,
			Name:                  e.Name,
			Department:            e.Department,
			Seniority:             e.Seniority,
			MaxCapacity:           planningCapacity,
			CurrentAllocation:     current,
			AvailableCapacity:     max(0, planningCapacity-current),
			UtilizationPercentage: util,
			Class:                 ClassifyPlanning(util),
			Assignments:           planned,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UtilizationPercentage > rows[j].UtilizationPercentage
	})

	var ins PlanningInsights
	available := 0
	for _, r := range rows {
		switch r.Class {
		case PlanningOver:
			ins.OverUtilized++
		case PlanningFull:
			ins.FullyUtilized++
		case PlanningUnder:
			ins.UnderUtilized++
		}
		available += r.AvailableCapacity
	}
	if len(rows) > 0 {
		ins.TotalAvailableCapacity = RoundHalfUp(float64(available) / float64(len(rows)))
	}

	return PlanningReport{Engineers: rows, Insights: ins}
}
