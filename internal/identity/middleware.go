package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/roles"
	"github.com/meridian-erp/meridian-erp/internal/users"
)

// UserSource loads the user's current account state.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
}

// RoleSource loads the role a user currently holds.
type RoleSource interface {
	GetByID(ctx context.Context, id int64) (roles.Role, error)
}

// Middleware authenticates requests and installs the principal in context.
// The roleID and role name are loaded per request, never cached across
// requests, so a role reassignment takes effect immediately.
type Middleware struct {
	Verifier *Verifier
	Users    UserSource
	Roles    RoleSource
	Logger   *slog.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		userID, err := m.Verifier.UserID(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
			return
		}

		ctx := r.Context()
		user, err := m.Users.GetByID(ctx, userID)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown account")
			return
		}
		if !user.IsActive {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "account disabled")
			return
		}
		role, err := m.Roles.GetByID(ctx, user.RoleID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("identity load role", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		principal := authz.NewPrincipal(user.ID, role.ID, role.Name)
		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(ctx, principal)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
