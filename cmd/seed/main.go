// Command seed loads a small demo team into the configured database. It is a
// no-op when the demo manager already exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	dbfs "github.com/garnizeh/capacity/db"
	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/config"
	"github.com/garnizeh/capacity/internal/db"
	"github.com/garnizeh/capacity/internal/repository/sqlite"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const (
	managerEmail     = "manager@company.com"
	managerPassword  = "manager123"
	engineerPassword = "engineer123"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var engineers = []models.Engineer{
	{Name: "Alice Johnson", Email: "alice@company.com", Skills: []string{"React", "Node.js", "MongoDB"}, Seniority: models.SenioritySenior, MaxCapacity: 100, Department: "Frontend", EmploymentType: models.EmploymentFullTime},
	{Name: "Bob Smith", Email: "bob@company.com", Skills: []string{"Python", "Django", "PostgreSQL"}, Seniority: models.SeniorityMid, MaxCapacity: 100, Department: "Backend", EmploymentType: models.EmploymentFullTime},
	{Name: "Carol Davis", Email: "carol@company.com", Skills: []string{"React", "TypeScript", "GraphQL"}, Seniority: models.SeniorityJunior, MaxCapacity: 50, Department: "Frontend", EmploymentType: models.EmploymentPartTime},
	{Name: "David Wilson", Email: "david@company.com", Skills: []string{"Node.js", "Express", "MongoDB", "AWS"}, Seniority: models.SenioritySenior, MaxCapacity: 100, Department: "DevOps", EmploymentType: models.EmploymentFullTime},
}

var projects = []models.Project{
	{Name: "E-commerce Platform", Description: "Build a modern e-commerce platform with React and Node.js", StartDate: date("2024-01-01"), EndDate: date("2024-06-30"), RequiredSkills: []string{"React", "Node.js", "MongoDB"}, TeamSize: 3, Status: models.ProjectActive},
	{Name: "Mobile App Backend", Description: "API development for mobile application", StartDate: date("2024-02-01"), EndDate: date("2024-05-31"), RequiredSkills: []string{"Python", "Django", "PostgreSQL"}, TeamSize: 2, Status: models.ProjectActive},
	{Name: "Analytics Dashboard", Description: "Real-time analytics dashboard with GraphQL", StartDate: date("2024-03-01"), EndDate: date("2024-08-31"), RequiredSkills: []string{"React", "TypeScript", "GraphQL"}, TeamSize: 2, Status: models.ProjectPlanning},
	{Name: "Cloud Migration", Description: "Migrate existing infrastructure to AWS", StartDate: date("2024-01-15"), EndDate: date("2024-04-15"), RequiredSkills: []string{"AWS", "Node.js", "MongoDB"}, TeamSize: 2, Status: models.ProjectActive},
}

// assignments index into engineers and projects.
var assignments = []struct {
	engineer, project int
	alloc             int
	start, end        string
	role              string
}{
	{0, 0, 60, "2024-01-01", "2024-06-30", "Tech Lead"},
	{1, 1, 80, "2024-02-01", "2024-05-31", "Backend Developer"},
	{2, 0, 40, "2024-01-01", "2024-06-30", "Frontend Developer"},
	{3, 3, 70, "2024-01-15", "2024-04-15", "DevOps Engineer"},
	{0, 2, 30, "2024-03-01", "2024-08-31", "Frontend Lead"},
	{3, 0, 20, "2024-01-01", "2024-06-30", "Infrastructure Support"},
}

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	repo := sqlite.New(database, logger).Repository()
	if err := seed(ctx, repo, capacity.NewGuard(repo, capacity.WithLogger(logger))); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, repo *repository.Repository, guard *capacity.Guard) error {
	existing, err := repo.Engineer.GetByEmail(ctx, managerEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Println("Demo data already present.")
		return nil
	}

	managerHash, err := bcrypt.GenerateFromPassword([]byte(managerPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	engineerHash, err := bcrypt.GenerateFromPassword([]byte(engineerPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	managerID, err := repo.Engineer.CreateEngineer(ctx, &models.Engineer{
		Name:         "John Manager",
		Email:        managerEmail,
		Type:         models.UserTypeManager,
		Skills:       []string{},
		PasswordHash: string(managerHash),
	})
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	engineerIDs := make([]int64, len(engineers))
	for i, e := range engineers {
		e.Type = models.UserTypeEngineer
		e.PasswordHash = string(engineerHash)
		if engineerIDs[i], err = repo.Engineer.CreateEngineer(ctx, &e); err != nil {
			return fmt.Errorf("create engineer %s: %w", e.Email, err)
		}
	}

	projectIDs := make([]int64, len(projects))
	for i, p := range projects {
		p.ManagerID = managerID
		if projectIDs[i], err = repo.Project.CreateProject(ctx, &p); err != nil {
			return fmt.Errorf("create project %s: %w", p.Name, err)
		}
	}

	// assignments are capacity checked like any other write
	for _, a := range assignments {
		if _, err := guard.Create(ctx, capacity.NewAssignment{
			EngineerID:           engineerIDs[a.engineer],
			ProjectID:            projectIDs[a.project],
			AllocationPercentage: a.alloc,
			StartDate:            date(a.start),
			EndDate:              date(a.end),
			Role:                 a.role,
		}); err != nil {
			return fmt.Errorf("assign %s to %s: %w", engineers[a.engineer].Name, projects[a.project].Name, err)
		}
	}

	fmt.Println("Engineering system seeded successfully")
	fmt.Println("Manager:", managerEmail, "password:", managerPassword)
	fmt.Println("Engineers created:", len(engineers))
	fmt.Println("Projects created:", len(projects))
	fmt.Println("Assignments created:", len(assignments))
	return nil
}
