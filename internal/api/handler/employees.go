package handler

import (
	"net/http"

	"workclock.service/internal/core"
	"workclock.service/internal/core/model"
)

// ListEmployees returns staff; ?includeInactive=true adds deactivated ones.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	employees, err := h.Employees.List(r.Context(), includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in core.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Employees.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Employees.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in core.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Employees.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) ActivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Employees.SetActive(r.Context(), id, active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Employees.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
