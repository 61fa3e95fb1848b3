package analytics

import (
	"math"

	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/pkg/models"
)

// RoundHalfUp rounds x to the nearest integer with halves going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// percent returns round(100 * num / den), or 0 when den is 0.
func percent(num, den int) int {
	if den == 0 {
		return 0
	}
	return RoundHalfUp(100 * float64(num) / float64(den))
}

// snapshotSum adds the allocation of every active assignment regardless of dates.
func snapshotSum(assignments []models.Assignment) int {
	sum := 0
	for _, a := range assignments {
		if a.Status == models.AssignmentActive {
			sum += a.AllocationPercentage
		}
	}
	return sum
}

type UtilizationSummary struct {
	TotalCapacity   int `json:"totalCapacity"`
	TotalUtilized   int `json:"totalUtilized"`
	UtilizationRate int `json:"utilizationRate"`
}

// Utilization compares total engineer capacity with the snapshot sum of active
// assignments. Assignment dates are ignored.
func Utilization(engineers []models.Engineer, assignments []models.Assignment) UtilizationSummary {
	total := 0
	for i := range engineers {
		total += engineers[i].Capacity()
	}
	used := snapshotSum(assignments)
	return UtilizationSummary{
		TotalCapacity:   total,
		TotalUtilized:   used,
		UtilizationRate: percent(used, total),
	}
}

type Overview struct {
	TotalEngineers    int `json:"totalEngineers"`
	TotalProjects     int `json:"totalProjects"`
	ActiveAssignments int `json:"activeAssignments"`
	UtilizationRate   int `json:"utilizationRate"`
}

type TeamReport struct {
	Overview                  Overview           `json:"overview"`
	Utilization               UtilizationSummary `json:"utilization"`
	SkillDistribution         Distribution       `json:"skillDistribution"`
	DepartmentDistribution    Distribution       `json:"departmentDistribution"`
	SeniorityDistribution     Distribution       `json:"seniorityDistribution"`
	ProjectStatusDistribution Distribution       `json:"projectStatusDistribution"`
}

// TeamAnalytics builds the team overview and the four distributions.
func TeamAnalytics(s *snapshot.Snapshot) TeamReport {
	util := Utilization(s.Engineers, s.Assignments)
	active := 0
	for _, a := range s.Assignments {
		if a.Status == models.AssignmentActive {
			active++
		}
	}
	return TeamReport{
		Overview: Overview{
			TotalEngineers:    len(s.Engineers),
			TotalProjects:     len(s.Projects),
			ActiveAssignments: active,
			UtilizationRate:   util.UtilizationRate,
		},
		Utilization:               util,
		SkillDistribution:         SkillDistribution(s.Engineers),
		DepartmentDistribution:    DepartmentDistribution(s.Engineers),
		SeniorityDistribution:     SeniorityDistribution(s.Engineers),
		ProjectStatusDistribution: ProjectStatusDistribution(s.Projects),
	}
}
