package api

import (
	"log/slog"
	"net/http"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/validation"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

type ProjectsHandler struct {
	repo    *repository.Repository
	schemas *validation.Loader
}

func NewProjectsHandler(repo *repository.Repository, schemas *validation.Loader) *ProjectsHandler {
	return &ProjectsHandler{repo: repo, schemas: schemas}
}

type projectRequest struct {
	Name           *string               `json:"name"`
	Description    *string               `json:"description"`
	StartDate      *string               `json:"startDate"`
	EndDate        *string               `json:"endDate"`
	RequiredSkills []string              `json:"requiredSkills"`
	TeamSize       *int                  `json:"teamSize"`
	Status         *models.ProjectStatus `json:"status"`
}

// apply copies the fields present in req onto p.
func (req projectRequest) apply(p *models.Project) error {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.RequiredSkills != nil {
		p.RequiredSkills = req.RequiredSkills
	}
	if req.TeamSize != nil {
		p.TeamSize = *req.TeamSize
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	start, err := parseOptionalDate("startDate", req.StartDate)
	if err != nil {
		return err
	}
	if start != nil {
		p.StartDate = *start
	}
	end, err := parseOptionalDate("endDate", req.EndDate)
	if err != nil {
		return err
	}
	if end != nil {
		p.EndDate = *end
	}
	if p.StartDate.After(p.EndDate) {
		return &capacity.ValidationError{Field: "endDate", Reason: "must not be before startDate"}
	}
	return nil
}

type projectDetail struct {
	*models.Project
	Assignments []models.Assignment `json:"assignments"`
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.ProjectFilter{Status: models.ProjectStatus(r.URL.Query().Get("status"))}
	var err error
	if f.ManagerID, err = queryID(r, "managerId"); err != nil {
		writeError(w, r, err)
		return
	}

	projects, err := h.repo.Project.ListProjects(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	total := int64(len(projects))
	limit, offset := paging(r)
	page := []models.Project{}
	if offset < len(projects) {
		page = projects[offset:min(offset+limit, len(projects))]
	}
	writeJSON(w, envelope{Status: "success", Count: &total, Data: page}, http.StatusOK)
}

func (h *ProjectsHandler) load(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	p, err := h.repo.Project.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if p == nil || p.Deleted() {
		writeError(w, r, &capacity.NotFoundError{Entity: "project", ID: id})
		return nil, false
	}
	return p, true
}

// Get returns the project with all of its assignments.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	assignments, err := h.repo.Assignment.ListAssignments(r.Context(), repository.AssignmentFilter{ProjectID: p.ID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	writeData(w, http.StatusOK, "", projectDetail{Project: p, Assignments: assignments})
}

// Create stores a project managed by the caller.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeValidated(r, h.schemas, validation.ProjectCreate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := &models.Project{ManagerID: UserID(r.Context()), RequiredSkills: []string{}}
	if err := req.apply(p); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.repo.Project.CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.repo.Project.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("project created", slog.Int64("project_id", id), slog.Int64("manager_id", p.ManagerID))
	writeData(w, http.StatusCreated, "project created", created)
}

// Update applies the fields present in the body.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if err := decodeValidated(r, h.schemas, validation.ProjectUpdate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.apply(p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.repo.Project.UpdateProject(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "project updated", p)
}

// Delete tombstones the project and removes its assignments.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.repo.Project.DeleteProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, &capacity.NotFoundError{Entity: "project", ID: id})
		return
	}
	writeData(w, http.StatusOK, "project and its assignments deleted", nil)
}
