package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler covers user administration and the audit trail. Admin routes
// on hotels, reservations, payments and reviews live on their domain handlers.
type AdminHandler struct {
	users usecase.UserService
	logs  usecase.AdminLogService
	log   *zap.Logger
}

func NewAdminHandler(users usecase.UserService, logs usecase.AdminLogService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users: users,
		logs:  logs,
		log:   log.With(zap.String("handler", "admin")),
	}
}

// ListUsers handles GET /api/admin/users?role=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := &request.UserFilterRequest{
		PaginatedRequest: paginationFrom(r),
		Role:             r.URL.Query().Get("role"),
	}
	users, err := h.users.ListUsers(r.Context(), actor, req)
	if err != nil {
		handleServiceError(h.log, w, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "success", users)
}

// DeactivateUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.users.DeactivateUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "deactivate user")
		return
	}

	utils.ResponseSuccess(w, "User deactivated", nil)
}

// CreateManager handles POST /api/admin/managers
func (h *AdminHandler) CreateManager(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateManagerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	manager, err := h.users.CreateManager(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create manager")
		return
	}

	utils.ResponseCreated(w, "Hotel manager created", manager)
}

// ListLogs handles GET /api/admin/logs?target_type=
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := &request.AdminLogFilterRequest{
		PaginatedRequest: paginationFrom(r),
		TargetType:       r.URL.Query().Get("target_type"),
	}
	logs, err := h.logs.ListLogs(r.Context(), actor, req)
	if err != nil {
		handleServiceError(h.log, w, err, "list admin logs")
		return
	}

	utils.ResponseSuccess(w, "success", logs)
}
