package main

import (
	"context"
	"testing"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
	"github.com/garnizeh/capacity/pkg/repository/mock"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := mock.NewStore().Repository()
	guard := capacity.NewGuard(repo)

	for range 2 {
		if err := seed(ctx, repo, guard); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	users, err := repo.Engineer.ListEngineers(ctx, repository.EngineerFilter{})
	if err != nil {
		t.Fatalf("list engineers: %v", err)
	}
	if len(users) != len(engineers)+1 {
		t.Fatalf("want %d users got %d", len(engineers)+1, len(users))
	}
	as, err := repo.Assignment.ListAssignments(ctx, repository.AssignmentFilter{Status: models.AssignmentActive})
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(as) != len(assignments) {
		t.Fatalf("want %d assignments got %d", len(assignments), len(as))
	}
}
