package overrides

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

// Handler exposes override store endpoints. Mutations return the new
// authoritative list so callers stay consistent without a follow-up read.
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

// MountRoutes registers override routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users/{id}/overrides", func(r chi.Router) {
		r.With(h.guard.RequireAny(shared.PermAuthzOverridesView, shared.PermAuthzOverridesEdit)).Get("/", h.list)
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireAll(shared.PermAuthzOverridesEdit))
			r.Put("/", h.replace)
			r.Delete("/{key}", h.delete)
		})
	})
}

type overridePayload struct {
	Key  string `json:"key" validate:"required"`
	Mode string `json:"mode" validate:"required,oneof=GRANT DENY"`
}

type replaceRequest struct {
	Overrides []overridePayload `json:"overrides" validate:"dive"`
}

type overridesResponse struct {
	UserID    int64      `json:"user_id"`
	Overrides []Override `json:"overrides"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	overrides, err := h.service.List(r.Context(), userID)
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overridesResponse{UserID: userID, Overrides: overrides})
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req replaceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	overrides := make([]Override, len(req.Overrides))
	for i, o := range req.Overrides {
		overrides[i] = Override{Key: o.Key, Mode: authz.Mode(o.Mode)}
	}
	stored, err := h.service.Replace(r.Context(), userID, overrides)
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overridesResponse{UserID: userID, Overrides: stored})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	remaining, err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "key"))
	if err != nil {
		authz.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overridesResponse{UserID: userID, Overrides: remaining})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return 0, false
	}
	return id, true
}
