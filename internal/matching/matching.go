// Package matching scores engineers against the skills a project requires.
package matching

import (
	"sort"
	"time"

	"github.com/garnizeh/capacity/internal/analytics"
	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/pkg/models"
)

type Candidate struct {
	Engineer            models.Engineer `json:"engineer"`
	MatchingSkills      []string        `json:"matchingSkills"`
	MatchPercentage     int             `json:"matchPercentage"`
	TotalRequiredSkills int             `json:"totalRequiredSkills"`
	// CurrentAllocation and AvailableCapacity are point-in-time values at now.
	CurrentAllocation int `json:"currentAllocation"`
	AvailableCapacity int `json:"availableCapacity"`
}

func score(project *models.Project, e models.Engineer, byEngineer map[int64][]capacity.Window, now time.Time) Candidate {
	required := make(map[string]struct{}, len(project.RequiredSkills))
	for _, s := range project.RequiredSkills {
		required[s] = struct{}{}
	}

	matching := make([]string, 0)
	seen := make(map[string]struct{}, len(e.Skills))
	for _, s := range e.Skills {
		if _, ok := required[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		matching = append(matching, s)
	}

	pct := 0
	if n := len(required); n > 0 {
		pct = analytics.RoundHalfUp(100 * float64(len(matching)) / float64(n))
	}

	current := capacity.PointInTimeSum(now, byEngineer[e.ID])
	return Candidate{
		Engineer:            e,
		MatchingSkills:      matching,
		MatchPercentage:     pct,
		TotalRequiredSkills: len(required),
		CurrentAllocation:   current,
		AvailableCapacity:   e.Capacity() - current,
	}
}

func windowsByEngineer(assignments []models.Assignment) map[int64][]capacity.Window {
	grouped := make(map[int64][]models.Assignment)
	for _, a := range assignments {
		grouped[a.EngineerID] = append(grouped[a.EngineerID], a)
	}
	out := make(map[int64][]capacity.Window, len(grouped))
	for id, as := range grouped {
		out[id] = capacity.ActiveWindows(as)
	}
	return out
}

// Rank scores every engineer against project and orders them by match percentage,
// highest first. Ties keep the input order. A project without required skills
// scores every engineer 0.
func Rank(project *models.Project, engineers []models.Engineer, assignments []models.Assignment, now time.Time) []Candidate {
	byEngineer := windowsByEngineer(assignments)
	out := make([]Candidate, 0, len(engineers))
	for _, e := range engineers {
		out = append(out, score(project, e, byEngineer, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchPercentage > out[j].MatchPercentage
	})
	return out
}

// Suitable returns the engineers sharing at least one required skill with
// project, in input order.
func Suitable(project *models.Project, engineers []models.Engineer, assignments []models.Assignment, now time.Time) []Candidate {
	byEngineer := windowsByEngineer(assignments)
	out := make([]Candidate, 0)
	for _, e := range engineers {
		c := score(project, e, byEngineer, now)
		if len(c.MatchingSkills) > 0 {
			out = append(out, c)
		}
	}
	return out
}
