package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"workclock.service/pkg/jwt"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ManagerID   int64     `json:"managerId"`
	Name        string    `json:"name"`
}

// Login issues a manager access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	manager, err := h.Identity.AuthenticateManager(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := jwt.GenerateAccessToken(manager.ID, manager.Email, string(manager.Role), h.JWTSecret, h.TokenTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Int64("manager_id", manager.ID).Msg("Manager logged in")
	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(h.TokenTTL).UTC(),
		ManagerID:   manager.ID,
		Name:        manager.Name,
	})
}
