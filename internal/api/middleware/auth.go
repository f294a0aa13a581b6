package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"workclock.service/internal/core/model"
	"workclock.service/pkg/jwt"
	"workclock.service/pkg/telemetry"
)

type contextKey struct{}

// RequireManager rejects requests without a valid manager bearer token and
// stores the token claims on the request context.
func RequireManager(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := jwt.ValidateAccessToken(token, secret)
			if err != nil {
				msg := "Invalid access token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Access token expired"
				}
				unauthorized(w, http.StatusUnauthorized, msg)
				return
			}
			if claims.Role != string(model.RoleManager) {
				unauthorized(w, http.StatusForbidden, "Manager access required")
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, claims)
			ctx = telemetry.WithEmployeeID(ctx, claims.EmployeeID)
			l := log.Ctx(ctx).With().Int64("manager_id", claims.EmployeeID).Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
		})
	}
}

// ManagerID returns the authenticated manager set by RequireManager.
func ManagerID(ctx context.Context) (int64, bool) {
	claims, ok := ctx.Value(contextKey{}).(*jwt.Claims)
	if !ok {
		return 0, false
	}
	return claims.EmployeeID, true
}

func unauthorized(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
