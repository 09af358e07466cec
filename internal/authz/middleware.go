package authz

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware wires authorization guards for HTTP handlers. Every guarded
// request re-resolves the effective set from the stores; nothing is trusted
// from earlier requests or pushed state.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAny ensures the principal holds at least one of the required keys.
func (m Middleware) RequireAny(keys ...string) func(http.Handler) http.Handler {
	required := normalizeKeys(keys)
	return m.guard(required, func(effective Set, required []string) bool {
		for _, key := range required {
			if effective.Has(key) {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the principal holds every required key.
func (m Middleware) RequireAll(keys ...string) func(http.Handler) http.Handler {
	required := normalizeKeys(keys)
	return m.guard(required, func(effective Set, required []string) bool {
		for _, key := range required {
			if !effective.Has(key) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) guard(required []string, allow func(Set, []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				RespondError(w, ErrForbidden)
				return
			}
			effective, err := m.Service.EffectivePermissions(r.Context(), principal)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz resolve", slog.Int64("user_id", principal.UserID), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if allow(effective, required) {
				next.ServeHTTP(w, r)
				return
			}
			RespondError(w, ErrForbidden)
		})
	}
}

func normalizeKeys(keys []string) []string {
	unique := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(strings.ToLower(key))
		if key == "" {
			continue
		}
		unique[key] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for key := range unique {
		normalized = append(normalized, key)
	}
	return normalized
}
