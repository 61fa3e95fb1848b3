package analytics

import (
	"time"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/pkg/models"
)

type LoadStatus string

const (
	LoadOverloaded    LoadStatus = "overloaded"
	LoadUnderutilized LoadStatus = "underutilized"
	LoadOptimal       LoadStatus = "optimal"
)

// ClassifyLoad buckets a point-in-time utilization: overloaded above 90,
// underutilized below 50, optimal otherwise. Unlike ClassifyPlanning every value
// lands in a bucket.
func ClassifyLoad(util int) LoadStatus {
	switch {
	case util > 90:
		return LoadOverloaded
	case util < 50:
		return LoadUnderutilized
	default:
		return LoadOptimal
	}
}

// allocatedAt is the point-in-time sum for one engineer at now.
func allocatedAt(s *snapshot.Snapshot, engineerID int64, now time.Time) int {
	return capacity.PointInTimeSum(now, capacity.ActiveWindows(s.AssignmentsFor(engineerID)))
}

type EngineerUtilization struct {
	EngineerID            int64      `json:"engineerId"`
	Name                  string     `json:"name"`
	MaxCapacity           int        `json:"maxCapacity"`
	TotalAllocated        int        `json:"totalAllocated"`
	UtilizationPercentage int        `json:"utilizationPercentage"`
	Status                LoadStatus `json:"status"`
}

type UtilizationCounts struct {
	Total         int `json:"total"`
	Overloaded    int `json:"overloaded"`
	Underutilized int `json:"underutilized"`
	Optimal       int `json:"optimal"`
}

type UtilizationReport struct {
	Analytics []EngineerUtilization `json:"analytics"`
	Summary   UtilizationCounts     `json:"summary"`
}

// TeamUtilization rates each engineer by the allocation of assignments active at now.
func TeamUtilization(s *snapshot.Snapshot, now time.Time) UtilizationReport {
	rows := make([]EngineerUtilization, 0, len(s.Engineers))
	var sum UtilizationCounts
	for i := range s.Engineers {
		e := &s.Engineers[i]
		total := allocatedAt(s, e.ID, now)
		util := percent(total, e.Capacity())
		status := ClassifyLoad(util)
		switch status {
		case LoadOverloaded:
			sum.Overloaded++
		case LoadUnderutilized:
			sum.Underutilized++
		default:
			sum.Optimal++
		}
		rows = append(rows, EngineerUtilization{
			EngineerID:            e.ID,
			Name:                  e.Name,
			MaxCapacity:           e.Capacity(),
			TotalAllocated:        total,
			UtilizationPercentage: util,
			Status:                status,
		})
	}
	sum.Total = len(s.Engineers)
	return UtilizationReport{Analytics: rows, Summary: sum}
}

type TeamMember struct {
	EngineerID            int64            `json:"id"`
	Name                  string           `json:"name"`
	Email                 string           `json:"email"`
	Skills                []string         `json:"skills"`
	Seniority             models.Seniority `json:"seniority,omitempty"`
	MaxCapacity           int              `json:"maxCapacity"`
	TotalAllocated        int              `json:"totalAllocated"`
	AvailableCapacity     int              `json:"availableCapacity"`
	UtilizationPercentage int              `json:"utilizationPercentage"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ManagerReport struct {
	TeamOverview      []TeamMember  `json:"teamOverview"`
	ProjectStats      []StatusCount `json:"projectStats"`
	ActiveAssignments int           `json:"activeAssignments"`
}

// ManagerDashboard reports point-in-time capacity per engineer. AvailableCapacity
// goes negative for an engineer who is over capacity right now.
func ManagerDashboard(s *snapshot.Snapshot, now time.Time) ManagerReport {
	team := make([]TeamMember, 0, len(s.Engineers))
	for i := range s.Engineers {
		e := &s.Engineers[i]
		total := allocatedAt(s, e.ID, now)
		team = append(team, TeamMember{
			EngineerID:            e.ID,
			Name:                  e.Name,
			Email:                 e.Email,
			Skills:                e.Skills,
			Seniority:             e.Seniority,
			MaxCapacity:           e.Capacity(),
			TotalAllocated:        total,
			AvailableCapacity:     e.Capacity() - total,
			UtilizationPercentage: percent(total, e.Capacity()),
		})
	}

	stats := make([]StatusCount, 0)
	for _, b := range ProjectStatusDistribution(s.Projects) {
		stats = append(stats, StatusCount{Status: b.Key, Count: b.Count})
	}

	active := 0
	for _, a := range s.Assignments {
		if a.Status == models.AssignmentActive {
			active++
		}
	}
	return ManagerReport{TeamOverview: team, ProjectStats: stats, ActiveAssignments: active}
}

type EngineerAssignment struct {
	models.Assignment
	ProjectName string `json:"projectName"`
}

type EngineerCapacity struct {
	MaxCapacity       int `json:"maxCapacity"`
	TotalAllocated    int `json:"totalAllocated"`
	AvailableCapacity int `json:"availableCapacity"`
}

type EngineerReport struct {
	CurrentAssignments  []EngineerAssignment `json:"currentAssignments"`
	UpcomingAssignments []EngineerAssignment `json:"upcomingAssignments"`
	Capacity            EngineerCapacity     `json:"capacity"`
}

// EngineerDashboard lists an engineer's active assignments and those starting
// after now. Capacity here uses the snapshot sum of the active ones.
func EngineerDashboard(v *snapshot.EngineerView, now time.Time) EngineerReport {
	names := make(map[int64]string, len(v.Projects))
	for _, p := range v.Projects {
		names[p.ID] = p.Name
	}
	withName := func(a models.Assignment) EngineerAssignment {
		n, ok := names[a.ProjectID]
		if !ok {
			n = UnknownProject
		}
		return EngineerAssignment{Assignment: a, ProjectName: n}
	}

	current := make([]EngineerAssignment, 0)
	upcoming := make([]EngineerAssignment, 0)
	for _, a := range v.Assignments {
		if a.Deleted() {
			continue
		}
		if a.Status == models.AssignmentActive {
			current = append(current, withName(a))
		}
		if a.StartDate.After(now) {
			upcoming = append(upcoming, withName(a))
		}
	}

	total := snapshotSum(v.Assignments)
	return EngineerReport{
		CurrentAssignments:  current,
		UpcomingAssignments: upcoming,
		Capacity: EngineerCapacity{
			MaxCapacity:       v.Engineer.Capacity(),
			TotalAllocated:    total,
			AvailableCapacity: v.Engineer.Capacity() - total,
		},
	}
}
