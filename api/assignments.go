package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/validation"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const maxBodyBytes = 1 << 20

type AssignmentsHandler struct {
	assignments repository.AssignmentRepo
	guard       *capacity.Guard
	schemas     *validation.Loader
}

func NewAssignmentsHandler(ar repository.AssignmentRepo, g *capacity.Guard, schemas *validation.Loader) *AssignmentsHandler {
	return &AssignmentsHandler{assignments: ar, guard: g, schemas: schemas}
}

type createAssignmentRequest struct {
	EngineerID           int64  `json:"engineerId"`
	ProjectID            int64  `json:"projectId"`
	AllocationPercentage int    `json:"allocationPercentage"`
	StartDate            string `json:"startDate"`
	EndDate              string `json:"endDate"`
	Role                 string `json:"role"`
}

type updateAssignmentRequest struct {
	AllocationPercentage *int                     `json:"allocationPercentage"`
	StartDate            *string                  `json:"startDate"`
	EndDate              *string                  `json:"endDate"`
	Role                 *string                  `json:"role"`
	Status               *models.AssignmentStatus `json:"status"`
}

// decodeValidated reads the body, checks it against schema and decodes it into v.
func decodeValidated(r *http.Request, schemas *validation.Loader, schema string, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &capacity.ValidationError{Field: "body", Reason: "unreadable"}
	}
	if err := schemas.Validate(r.Context(), schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &capacity.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func (h *AssignmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var f repository.AssignmentFilter
	var err error
	if f.EngineerID, err = queryID(r, "engineerId"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ProjectID, err = queryID(r, "projectId"); err != nil {
		writeError(w, r, err)
		return
	}
	if s := models.AssignmentStatus(r.URL.Query().Get("status")); s != "" {
		if !s.Valid() {
			writeError(w, r, &capacity.ValidationError{Field: "status", Reason: "unknown status " + string(s)})
			return
		}
		f.Status = s
	}

	ctx := r.Context()
	total, err := h.assignments.CountAssignments(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f.Limit, f.Offset = paging(r)
	items, err := h.assignments.ListAssignments(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Assignment{}
	}
	writeJSON(w, envelope{Status: "success", Count: &total, Data: items}, http.StatusOK)
}

func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.assignments.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a == nil {
		writeError(w, r, &capacity.NotFoundError{Entity: "assignment", ID: id})
		return
	}
	writeData(w, http.StatusOK, "", a)
}

func (h *AssignmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeValidated(r, h.schemas, validation.AssignmentCreate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.guard.Create(r.Context(), capacity.NewAssignment{
		EngineerID:           req.EngineerID,
		ProjectID:            req.ProjectID,
		AllocationPercentage: req.AllocationPercentage,
		StartDate:            start,
		EndDate:              end,
		Role:                 req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "assignment created", a)
}

func (h *AssignmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAssignmentRequest
	if err := decodeValidated(r, h.schemas, validation.AssignmentUpdate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := models.AssignmentPatch{
		AllocationPercentage: req.AllocationPercentage,
		Role:                 req.Role,
		Status:               req.Status,
	}
	if patch.StartDate, err = parseOptionalDate("startDate", req.StartDate); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.EndDate, err = parseOptionalDate("endDate", req.EndDate); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.guard.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "assignment updated", a)
}

func (h *AssignmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.assignments.DeleteAssignment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, &capacity.NotFoundError{Entity: "assignment", ID: id})
		return
	}
	writeData(w, http.StatusOK, "assignment deleted", nil)
}
