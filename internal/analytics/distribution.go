package analytics

import (
	"github.com/garnizeh/capacity/pkg/models"
)

// Fallback bucket keys for records missing the grouped field.
const (
	UnassignedDepartment = "Unassigned"
	UnspecifiedSeniority = "unspecified"
	UnknownStatus        = "unknown"
)

// Member identifies an engineer or project inside a bucket. Only the fields
// relevant to the distribution are set.
type Member struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Department string           `json:"department,omitempty"`
	Seniority  models.Seniority `json:"seniority,omitempty"`
	TeamSize   int              `json:"teamSize,omitempty"`
}

type Bucket struct {
	Key     string   `json:"key"`
	Count   int      `json:"count"`
	Members []Member `json:"members"`
}

// Distribution holds buckets in the order their key was first seen.
type Distribution []Bucket

// Lookup returns the bucket for key.
func (d Distribution) Lookup(key string) (Bucket, bool) {
	for _, b := range d {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// Total is the sum of all bucket counts.
func (d Distribution) Total() int {
	n := 0
	for _, b := range d {
		n += b.Count
	}
	return n
}

type grouper struct {
	index map[string]int
	out   Distribution
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(key string, m Member) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.out)
		g.index[key] = i
		g.out = append(g.out, Bucket{Key: key})
	}
	g.out[i].Count++
	g.out[i].Members = append(g.out[i].Members, m)
}

func (g *grouper) result() Distribution {
	if g.out == nil {
		return Distribution{}
	}
	return g.out
}

// SkillDistribution buckets engineers by each of their skills; an engineer with
// three skills appears in three buckets. Keys are the raw skill strings.
func SkillDistribution(engineers []models.Engineer) Distribution {
	g := newGrouper()
	for _, e := range engineers {
		for _, s := range e.Skills {
			g.add(s, Member{ID: e.ID, Name: e.Name, Department: e.Department})
		}
	}
	return g.result()
}

func DepartmentDistribution(engineers []models.Engineer) Distribution {
	g := newGrouper()
	for _, e := range engineers {
		key := e.Department
		if key == "" {
			key = UnassignedDepartment
		}
		g.add(key, Member{ID: e.ID, Name: e.Name, Seniority: e.Seniority})
	}
	return g.result()
}

func SeniorityDistribution(engineers []models.Engineer) Distribution {
	g := newGrouper()
	for _, e := range engineers {
		key := string(e.Seniority)
		if key == "" {
			key = UnspecifiedSeniority
		}
		g.add(key, Member{ID: e.ID, Name: e.Name, Department: e.Department})
	}
	return g.result()
}

func ProjectStatusDistribution(projects []models.Project) Distribution {
	g := newGrouper()
	for _, p := range projects {
		key := string(p.Status)
		if key == "" {
			key = UnknownStatus
		}
		g.add(key, Member{ID: p.ID, Name: p.Name, TeamSize: p.TeamSize})
	}
	return g.result()
}
