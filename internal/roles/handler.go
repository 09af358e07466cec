package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes role store endpoints. Every mutating response carries the
// new authoritative granted set so callers never need a follow-up read.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireAny(shared.PermAuthzRolesView, shared.PermAuthzRolesEdit))
			r.Get("/", h.list)
			r.Get("/{id}/permissions", h.permissions)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireAll(shared.PermAuthzRolesEdit))
			r.Put("/{id}/permissions/{key}", h.setPermission)
			r.Put("/{id}/permissions", h.setPermissionsBulk)
		})
	})
}

type setPermissionRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type bulkSetRequest struct {
	Keys    []string `json:"keys" validate:"required,min=1,dive,required"`
	Enabled *bool    `json:"enabled" validate:"required"`
}

type grantedResponse struct {
	RoleID  int64    `json:"role_id"`
	Granted []string `json:"granted"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	granted, err := h.service.Permissions(r.Context(), roleID)
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantedResponse{RoleID: roleID, Granted: granted.Keys()})
}

func (h *Handler) setPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req setPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	granted, err := h.service.SetPermission(r.Context(), roleID, chi.URLParam(r, "key"), *req.Enabled)
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantedResponse{RoleID: roleID, Granted: granted.Keys()})
}

func (h *Handler) setPermissionsBulk(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req bulkSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	granted, err := h.service.SetPermissionsBulk(r.Context(), roleID, req.Keys, *req.Enabled)
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantedResponse{RoleID: roleID, Granted: granted.Keys()})
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "role id must be numeric")
		return 0, false
	}
	return id, true
}
