package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/lambo313/auralumic-sub001/pkg/auth"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate validasi bearer token dan set user ID + role ke context
func Authenticate(verifier *auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := verifier.ParseValidate(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				logger.Warn("Token subject is not a user ID", zap.String("sub", claims.Sub))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole - middleware cek role, harus dipasang setelah Authenticate
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if !slices.Contains(roles, role) {
				logger.Warn("Role check: access denied",
					zap.String("user_id", userID.String()),
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Insufficient role for this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Admin - middleware cek role admin
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, "admin")
}
