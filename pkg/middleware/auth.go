package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
	"time"

	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	roleUser         = "user"
	roleHotelManager = "hotel_manager"
	roleAdmin        = "admin"
)

// Authenticate accepts either the static service token or a signed session
// token whose session row is still active.
func Authenticate(tokens *utils.TokenManager, sessions repository.SessionRepository, auth utils.AuthConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	serviceUserID, _ := uuid.Parse(auth.ServiceUserID)
	if auth.ServiceToken != "" && serviceUserID == uuid.Nil {
		logger.Warn("AUTH_SERVICE_TOKEN set without a valid AUTH_SERVICE_USER_ID, service token disabled")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			if auth.ServiceToken != "" && serviceUserID != uuid.Nil &&
				subtle.ConstantTimeCompare([]byte(token), []byte(auth.ServiceToken)) == 1 {
				ctx := utils.SetUserContext(r.Context(), serviceUserID, roleAdmin)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				logger.Warn("Rejected token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}
			sessionID, err := uuid.Parse(claims.ID)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			session, err := sessions.FindValidSession(r.Context(), sessionID)
			if err != nil {
				logger.Error("Failed to validate session",
					zap.String("session_id", sessionID.String()),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if !session.Active(time.Now()) || session.UserID != userID {
				logger.Warn("Invalid or revoked session", zap.String("session_id", sessionID.String()))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID, claims.Role)
			ctx = utils.SetSessionContext(ctx, sessionID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole lets the request through only for the listed roles. It must
// run after Authenticate.
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
				logger.Warn("Role check failed",
					zap.String("user_id", userID.String()),
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GuestUser(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, roleUser, roleAdmin)
}

func HotelManager(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, roleHotelManager, roleAdmin)
}

func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, roleAdmin)
}
