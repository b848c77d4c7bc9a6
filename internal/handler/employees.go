package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderdesk/admin-api/internal/store"
)

// EmployeeStore defines the database methods needed by employee handlers.
// Satisfied by *store.Store; narrow interface for testability.
type EmployeeStore interface {
	ListEmployeesByCategory(ctx context.Context, category string) ([]store.Employee, error)
}

// EmployeeHandler handles the employee roster endpoints.
type EmployeeHandler struct {
	store EmployeeStore
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

// RegisterRoutes registers employee endpoints on the given Chi router.
func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type employeeResponse struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"fullName"`
	PhoneNumber      string    `json:"phoneNumber"`
	EmployeeCategory string    `json:"employeeCategory"`
}

type employeeListResponse struct {
	Employees []employeeResponse `json:"employees"`
}

// List handles GET /api/employees?employeeCategory=Driver.
// The delivery screens use this for the driver allocation roster.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("employeeCategory")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "employeeCategory is required"})
		return
	}

	employees, err := h.store.ListEmployeesByCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: list employees: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = employeeResponse{
			ID:               e.ID,
			FullName:         e.FullName,
			PhoneNumber:      e.PhoneNumber,
			EmployeeCategory: e.EmployeeCategory,
		}
	}

	writeJSON(w, http.StatusOK, employeeListResponse{Employees: resp})
}
