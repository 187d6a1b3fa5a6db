package api

import (
	"context"
	"net/http"

	"github.com/garnizeh/crm/internal/auth"
	"github.com/garnizeh/crm/internal/models"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.EmployeeSummary, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
}

type EmployeesHandler struct {
	auth    AuthService
	schemas bodySchemas
}

// NewEmployeesHandler creates a new EmployeesHandler with required dependencies.
func NewEmployeesHandler(a AuthService) *EmployeesHandler {
	return &EmployeesHandler{auth: a, schemas: mustLoadBodySchemas()}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *EmployeesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.schemas.decode(w, r, "register", &req); err != nil {
		writeError(w, r, err, "Could not register employee.")
		return
	}

	employee, err := h.auth.Register(r.Context(), auth.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err, "Could not register employee.")
		return
	}

	writeJSON(w, employee, http.StatusCreated)
}

func (h *EmployeesHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.schemas.decode(w, r, "login", &req); err != nil {
		writeError(w, r, err, "Unable to login right now.")
		return
	}

	res, err := h.auth.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err, "Unable to login right now.")
		return
	}

	writeJSON(w, res, http.StatusOK)
}
