package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

type AuthHandler struct {
	engineerRepo       repository.EngineerRepo
	jwtSecret          string
	tokenDuration      time.Duration
	defaultMaxCapacity int
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(er repository.EngineerRepo, jwtSecret string, tokenDuration time.Duration, defaultMaxCapacity int) *AuthHandler {
	if defaultMaxCapacity <= 0 {
		defaultMaxCapacity = models.DefaultMaxCapacity
	}
	return &AuthHandler{engineerRepo: er, jwtSecret: jwtSecret, tokenDuration: tokenDuration, defaultMaxCapacity: defaultMaxCapacity}
}

type signupRequest struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Password       string                `json:"password"`
	Type           models.UserType       `json:"type"`
	Skills         []string              `json:"skills"`
	Seniority      models.Seniority      `json:"seniority"`
	Department     string                `json:"department"`
	MaxCapacity    int                   `json:"maxCapacity"`
	EmploymentType models.EmploymentType `json:"employmentType"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  *models.Engineer `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "missing fields")
		return
	}
	switch req.Type {
	case "":
		req.Type = models.UserTypeEngineer
	case models.UserTypeEngineer, models.UserTypeManager:
	default:
		writeMessage(w, http.StatusBadRequest, "type must be Engineer or Manager")
		return
	}
	if req.MaxCapacity < 0 || req.MaxCapacity > 100 {
		writeMessage(w, http.StatusBadRequest, "maxCapacity must be in [0, 100]")
		return
	}

	ctx := r.Context()

	existing, err := h.engineerRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := models.Engineer{
		Name:           req.Name,
		Email:          req.Email,
		Type:           req.Type,
		Skills:         req.Skills,
		Seniority:      req.Seniority,
		Department:     req.Department,
		MaxCapacity:    req.MaxCapacity,
		EmploymentType: req.EmploymentType,
		PasswordHash:   string(hash),
	}
	if e.MaxCapacity == 0 {
		e.MaxCapacity = h.defaultMaxCapacity
		if e.EmploymentType == models.EmploymentPartTime {
			e.MaxCapacity = h.defaultMaxCapacity / 2
		}
	}
	if e.EmploymentType == "" {
		e.EmploymentType = models.EmploymentFullTime
	}
	if e.Skills == nil {
		e.Skills = []string{}
	}

	e.ID, err = h.engineerRepo.CreateEngineer(ctx, &e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("user signed up", slog.Int64("user_id", e.ID), slog.String("type", string(e.Type)))

	h.respondWithToken(w, r, http.StatusCreated, &e)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "missing fields")
		return
	}

	e, err := h.engineerRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e == nil || e.Deleted() {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, e)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, e *models.Engineer) {
	token, err := issueToken(h.jwtSecret, h.tokenDuration, e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, status, "", authResponse{Token: token, User: e})
}

// Signout is client-side for stateless JWTs; the endpoint only acknowledges it.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "signed out", nil)
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id := UserID(r.Context())
	e, err := h.engineerRepo.GetEngineer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e == nil || e.Deleted() {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	writeData(w, http.StatusOK, "", e)
}
