package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"workclock.service/internal/api/handler"
	"workclock.service/internal/api/middleware"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(h *handler.Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	// Kiosk endpoints are unauthenticated; the PIN is the credential.
	api.HandleFunc("/clock", h.Clock).Methods(http.MethodPost)
	api.HandleFunc("/approve-shift", h.ApproveShift).Methods(http.MethodPost)
	api.HandleFunc("/force-clockout", h.ForceClockOut).Methods(http.MethodPost)

	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	manager := api.NewRoute().Subrouter()
	manager.Use(middleware.RequireManager(h.JWTSecret))

	manager.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	manager.HandleFunc("/sessions/{id:[0-9]+}", h.AdjustSession).Methods(http.MethodPut)
	manager.HandleFunc("/sessions/{id:[0-9]+}/approve", h.ApproveSession).Methods(http.MethodPost)

	manager.HandleFunc("/employees", h.ListEmployees).Methods(http.MethodGet)
	manager.HandleFunc("/employees", h.CreateEmployee).Methods(http.MethodPost)
	manager.HandleFunc("/employees/{id:[0-9]+}", h.GetEmployee).Methods(http.MethodGet)
	manager.HandleFunc("/employees/{id:[0-9]+}", h.UpdateEmployee).Methods(http.MethodPut)
	manager.HandleFunc("/employees/{id:[0-9]+}", h.DeleteEmployee).Methods(http.MethodDelete)
	manager.HandleFunc("/employees/{id:[0-9]+}/activate", h.ActivateEmployee).Methods(http.MethodPost)
	manager.HandleFunc("/employees/{id:[0-9]+}/deactivate", h.DeactivateEmployee).Methods(http.MethodPost)
	manager.HandleFunc("/employees/{id:[0-9]+}/sessions", h.EmployeeLog).Methods(http.MethodGet)

	manager.HandleFunc("/export/csv", h.ExportCSV).Methods(http.MethodGet)
	manager.HandleFunc("/export/xlsx", h.ExportXLSX).Methods(http.MethodGet)

	return r
}
