package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the caller's own effective permissions. UIs use this to
// decide what to show; every privileged server-side action still resolves
// on its own and never trusts this snapshot.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the self-inspection route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me/permissions", h.myPermissions)
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		RespondError(w, ErrForbidden)
		return
	}
	effective, err := h.service.EffectivePermissions(r.Context(), principal)
	if err != nil {
		h.logger.Error("resolve own permissions", slog.Int64("user_id", principal.UserID), slog.Any("error", err))
		RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":     principal.UserID,
		"role_id":     principal.RoleID,
		"super_admin": principal.IsSuperAdmin(),
		"granted":     effective.Keys(),
	})
}
