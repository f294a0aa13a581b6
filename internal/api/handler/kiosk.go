package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"workclock.service/internal/core/model"
)

type ClockRequest struct {
	PIN    string   `json:"pin"`
	GPSLat *float64 `json:"gpsLat"`
	GPSLng *float64 `json:"gpsLng"`
}

type ClockResponse struct {
	*model.Outcome
	TodayHours *decimal.Decimal `json:"todayHours,omitempty"`
}

// Clock handles a PIN submission at the kiosk. ApprovalRequired is a normal
// outcome and returns 200 like the other two.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ip := clientIP(r)
	outcome, err := h.Attendance.ProcessPIN(r.Context(), req.PIN, model.ClockContext{
		IPAddress: &ip,
		GPSLat:    req.GPSLat,
		GPSLng:    req.GPSLng,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ClockResponse{Outcome: outcome}
	if outcome.Action == model.ActionClockOut {
		hours, err := h.Payroll.TodayHours(r.Context(), outcome.Employee.ID)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Could not compute today's hours")
		} else {
			resp.TodayHours = &hours
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type ApproveShiftRequest struct {
	ApproverID int64  `json:"approverId"`
	PIN        string `json:"pin"`
	Reason     string `json:"reason"`
}

// ApproveShift records the current holder's consent to a second open shift.
func (h *Handler) ApproveShift(w http.ResponseWriter, r *http.Request) {
	var req ApproveShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ApproverID <= 0 {
		badRequest(w, "approverId is required")
		return
	}

	session, err := h.Attendance.ApproveDualShift(r.Context(), req.ApproverID, req.PIN, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": session != nil, "session": session})
}

type ForceClockOutRequest struct {
	SessionID int64  `json:"sessionId"`
	PIN       string `json:"pin"`
}

// ForceClockOut closes the session blocking the kiosk. The PIN identifies who
// is asking: the session owner or a manager.
func (h *Handler) ForceClockOut(w http.ResponseWriter, r *http.Request) {
	var req ForceClockOutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SessionID <= 0 {
		badRequest(w, "sessionId is required")
		return
	}

	actor, err := h.Identity.LookupByPIN(r.Context(), req.PIN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := h.Attendance.ForceClockOut(r.Context(), req.SessionID, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
