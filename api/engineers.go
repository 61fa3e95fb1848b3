package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garnizeh/capacity/internal/analytics"
	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/matching"
	"github.com/garnizeh/capacity/internal/validation"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

type EngineersHandler struct {
	repo    *repository.Repository
	schemas *validation.Loader
	now     func() time.Time
}

func NewEngineersHandler(repo *repository.Repository, schemas *validation.Loader) *EngineersHandler {
	return &EngineersHandler{repo: repo, schemas: schemas, now: func() time.Time { return time.Now().UTC() }}
}

type engineerRequest struct {
	Name           *string                `json:"name"`
	Skills         []string               `json:"skills"`
	Seniority      *models.Seniority      `json:"seniority"`
	Department     *string                `json:"department"`
	MaxCapacity    *int                   `json:"maxCapacity"`
	EmploymentType *models.EmploymentType `json:"employmentType"`
}

func (req engineerRequest) apply(e *models.Engineer) {
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Skills != nil {
		e.Skills = req.Skills
	}
	if req.Seniority != nil {
		e.Seniority = *req.Seniority
	}
	if req.Department != nil {
		e.Department = *req.Department
	}
	if req.MaxCapacity != nil {
		e.MaxCapacity = *req.MaxCapacity
	}
	if req.EmploymentType != nil {
		e.EmploymentType = *req.EmploymentType
	}
}

func (h *EngineersHandler) load(w http.ResponseWriter, r *http.Request) (*models.Engineer, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	e, err := h.repo.Engineer.GetEngineer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if e == nil || e.Deleted() {
		writeError(w, r, &capacity.NotFoundError{Entity: "engineer", ID: id})
		return nil, false
	}
	return e, true
}

// Update changes the profile fields present in the body. A new maxCapacity
// applies to the next capacity check.
func (h *EngineersHandler) Update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	var req engineerRequest
	if err := decodeValidated(r, h.schemas, validation.EngineerUpdate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.apply(e)
	if err := h.repo.Engineer.UpdateEngineer(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.repo.Engineer.GetEngineer(r.Context(), e.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("engineer updated", slog.Int64("engineer_id", e.ID), slog.Int64("by", UserID(r.Context())))
	writeData(w, http.StatusOK, "engineer updated", updated)
}

// Delete tombstones the engineer. Their assignments stay for history.
func (h *EngineersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.repo.Engineer.SoftDeleteEngineer(r.Context(), e.ID); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("engineer deleted", slog.Int64("engineer_id", e.ID), slog.Int64("by", UserID(r.Context())))
	writeData(w, http.StatusOK, "engineer deleted", nil)
}

func (h *EngineersHandler) activeAssignments(r *http.Request) ([]models.Assignment, error) {
	return h.repo.Assignment.ListAssignments(r.Context(), repository.AssignmentFilter{Status: models.AssignmentActive})
}

// List returns engineers with their committed allocation. ?skill= filters by a
// case-insensitive substring of any skill.
func (h *EngineersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engineers, err := h.repo.Engineer.ListEngineers(ctx, repository.EngineerFilter{
		Type:  models.UserTypeEngineer,
		Skill: strings.TrimSpace(r.URL.Query().Get("skill")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	assignments, err := h.activeAssignments(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	roster := analytics.Roster(engineers, assignments)
	count := int64(len(roster))
	writeJSON(w, envelope{Status: "success", Count: &count, Data: roster}, http.StatusOK)
}

// Assignments lists every assignment of one engineer, latest start first.
func (h *EngineersHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}

	items, err := h.repo.Assignment.ListAssignments(r.Context(), repository.AssignmentFilter{EngineerID: e.ID, OrderByStartDesc: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Assignment{}
	}
	count := int64(len(items))
	writeJSON(w, envelope{Status: "success", Count: &count, Data: items}, http.StatusOK)
}

// ByProject ranks every engineer against the project's required skills.
func (h *EngineersHandler) ByProject(w http.ResponseWriter, r *http.Request) {
	h.match(w, r, "projectId", matching.Rank)
}

// Suitable returns only engineers sharing at least one required skill.
func (h *EngineersHandler) Suitable(w http.ResponseWriter, r *http.Request) {
	h.match(w, r, "id", matching.Suitable)
}

type matchFunc func(*models.Project, []models.Engineer, []models.Assignment, time.Time) []matching.Candidate

func (h *EngineersHandler) match(w http.ResponseWriter, r *http.Request, param string, fn matchFunc) {
	id, err := pathID(r, param)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	p, err := h.repo.Project.GetProject(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil || p.Deleted() {
		writeError(w, r, &capacity.NotFoundError{Entity: "project", ID: id})
		return
	}
	engineers, err := h.repo.Engineer.ListEngineers(ctx, repository.EngineerFilter{Type: models.UserTypeEngineer})
	if err != nil {
		writeError(w, r, err)
		return
	}
	assignments, err := h.activeAssignments(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	candidates := fn(p, engineers, assignments, h.now())
	count := int64(len(candidates))
	writeJSON(w, envelope{Status: "success", Count: &count, Data: candidates}, http.StatusOK)
}
