package matching_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garnizeh/capacity/internal/matching"
	"github.com/garnizeh/capacity/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

func engineers() []models.Engineer {
	return []models.Engineer{
		{ID: 1, Name: "Alice", Skills: []string{"Go", "SQL"}, MaxCapacity: 100},
		{ID: 2, Name: "Bob", Skills: []string{"React"}, MaxCapacity: 100},
		{ID: 3, Name: "Carol", Skills: []string{"Go", "React", "SQL"}, MaxCapacity: 50},
		{ID: 4, Name: "David", Skills: []string{"go"}, MaxCapacity: 100},
	}
}

func TestRank(t *testing.T) {
	project := &models.Project{ID: 1, RequiredSkills: []string{"Go", "SQL", "Kubernetes"}}
	assignments := []models.Assignment{
		{ID: 1, EngineerID: 3, AllocationPercentage: 30, StartDate: day(1), EndDate: day(10), Status: models.AssignmentActive},
		{ID: 2, EngineerID: 3, AllocationPercentage: 40, StartDate: day(20), EndDate: day(30), Status: models.AssignmentActive},
		{ID: 3, EngineerID: 1, AllocationPercentage: 90, StartDate: day(1), EndDate: day(10), Status: models.AssignmentCancelled},
	}

	got := matching.Rank(project, engineers(), assignments, day(5))
	require.Len(t, got, 4)

	ids := []int64{got[0].Engineer.ID, got[1].Engineer.ID, got[2].Engineer.ID, got[3].Engineer.ID}
	require.Equal(t, []int64{1, 3, 2, 4}, ids)

	require.Equal(t, 67, got[0].MatchPercentage)
	require.Equal(t, []string{"Go", "SQL"}, got[0].MatchingSkills)
	require.Equal(t, 3, got[0].TotalRequiredSkills)
	require.Equal(t, 0, got[0].CurrentAllocation)
	require.Equal(t, 100, got[0].AvailableCapacity)

	// only the assignment covering day 5 counts
	require.Equal(t, 30, got[1].CurrentAllocation)
	require.Equal(t, 20, got[1].AvailableCapacity)

	// skills are case-sensitive
	require.Equal(t, 0, got[3].MatchPercentage)
	require.Empty(t, got[3].MatchingSkills)
}

func TestRankEmptyRequiredSkills(t *testing.T) {
	got := matching.Rank(&models.Project{ID: 1}, engineers(), nil, day(1))
	require.Len(t, got, 4)
	for i, c := range got {
		require.Equal(t, 0, c.MatchPercentage)
		require.Equal(t, 0, c.TotalRequiredSkills)
		require.Equal(t, engineers()[i].ID, c.Engineer.ID)
	}
}

func TestRankAvailableGoesNegative(t *testing.T) {
	es := []models.Engineer{{ID: 1, Skills: []string{"Go"}, MaxCapacity: 100}}
	as := []models.Assignment{
		{ID: 1, EngineerID: 1, AllocationPercentage: 80, StartDate: day(1), EndDate: day(10), Status: models.AssignmentActive},
		{ID: 2, EngineerID: 1, AllocationPercentage: 40, StartDate: day(5), EndDate: day(10), Status: models.AssignmentActive},
	}
	got := matching.Rank(&models.Project{RequiredSkills: []string{"Go"}}, es, as, day(6))
	require.Equal(t, 120, got[0].CurrentAllocation)
	require.Equal(t, -20, got[0].AvailableCapacity)
}

func TestRankIgnoresDeletedAssignments(t *testing.T) {
	es := []models.Engineer{{ID: 1, Skills: []string{"Go"}, MaxCapacity: 100}}
	gone := day(2)
	as := []models.Assignment{
		{ID: 1, EngineerID: 1, AllocationPercentage: 25, StartDate: day(1), EndDate: day(10), Status: models.AssignmentActive},
		{ID: 2, EngineerID: 1, AllocationPercentage: 50, StartDate: day(1), EndDate: day(10), Status: models.AssignmentActive, DeletedAt: &gone},
		{ID: 3, EngineerID: 1, AllocationPercentage: 50, StartDate: day(1), EndDate: day(10), Status: models.AssignmentCompleted},
	}
	got := matching.Rank(&models.Project{RequiredSkills: []string{"Go"}}, es, as, day(5))
	require.Equal(t, 25, got[0].CurrentAllocation)
	require.Equal(t, 75, got[0].AvailableCapacity)
}

func TestSuitable(t *testing.T) {
	project := &models.Project{ID: 1, RequiredSkills: []string{"React", "SQL"}}
	got := matching.Suitable(project, engineers(), nil, day(1))

	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].Engineer.ID)
	require.Equal(t, int64(2), got[1].Engineer.ID)
	require.Equal(t, int64(3), got[2].Engineer.ID)
	require.Equal(t, 100, got[2].MatchPercentage)

	require.Empty(t, matching.Suitable(&models.Project{}, engineers(), nil, day(1)))
}
