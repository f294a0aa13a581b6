package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"workclock.service/internal/api/middleware"
	"workclock.service/internal/core/model"
	"workclock.service/internal/export"
)

func managerID(r *http.Request) (int64, error) {
	id, ok := middleware.ManagerID(r.Context())
	if !ok {
		return 0, errors.New("manager missing from request context")
	}
	return id, nil
}

// Dashboard returns the payroll overview for ?year=&month=.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, err := periodFromQuery(r, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics, err := h.Payroll.DashboardMetrics(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

type EmployeeLogResponse struct {
	Employee    *model.Employee       `json:"employee"`
	Period      string                `json:"period"`
	Summary     model.EmployeeSummary `json:"summary"`
	Sessions    []model.Session       `json:"sessions"`
	ActiveShift *model.Session        `json:"activeShift,omitempty"`
}

// EmployeeLog lists one employee's sessions and pay for a month.
func (h *Handler) EmployeeLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := periodFromQuery(r, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.Employees.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessions, err := h.Payroll.EmployeeMonthlyLog(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.Payroll.Summarize(r.Context(), *e, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active, err := h.Attendance.ActiveShift(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, EmployeeLogResponse{
		Employee:    e,
		Period:      p.String(),
		Summary:     summary,
		Sessions:    sessions,
		ActiveShift: active,
	})
}

type AdjustRequest struct {
	ClockIn  time.Time `json:"clockIn"`
	ClockOut time.Time `json:"clockOut"`
	Note     string    `json:"note"`
}

// AdjustSession rewrites a session's timestamps.
func (h *Handler) AdjustSession(w http.ResponseWriter, r *http.Request) {
	mgr, err := managerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req AdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ClockIn.IsZero() || req.ClockOut.IsZero() {
		badRequest(w, "clockIn and clockOut are required")
		return
	}

	session, err := h.Attendance.AdjustSession(r.Context(), mgr, id, req.ClockIn, req.ClockOut, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type ApproveSessionRequest struct {
	Reason string `json:"reason"`
}

// ApproveSession records a manager's approval on an open session.
func (h *Handler) ApproveSession(w http.ResponseWriter, r *http.Request) {
	mgr, err := managerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ApproveSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Attendance.ManagerApproveSession(r.Context(), mgr, id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ExportCSV downloads the monthly payroll as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", export.ContentTypeCSV, func(p model.Period, s []model.EmployeeSummary) ([]byte, error) {
		return export.CSV(s)
	})
}

// ExportXLSX downloads the monthly payroll as a spreadsheet.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", export.ContentTypeXLSX, export.XLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(model.Period, []model.EmployeeSummary) ([]byte, error)) {
	p, err := periodFromQuery(r, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summaries, err := h.Payroll.AllEmployeesMonthlySummary(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := render(p, summaries)
	if err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", ext, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(p, ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
