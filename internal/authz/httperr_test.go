package authz

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func respondStatus(t *testing.T, err error) int {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)
	return rec.Code
}

func TestRespondErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("%w: role 9", ErrNotFound), http.StatusNotFound},
		{"unknown permission", fmt.Errorf("%w: %q", ErrUnknownPermission, "x.y"), http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: empty key", ErrValidation), http.StatusBadRequest},
		{"conflict", fmt.Errorf("%w: duplicate", ErrConflict), http.StatusConflict},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.status, respondStatus(t, tc.err))
		})
	}
}

func TestRespondErrorLostWriteRaceIsConflict(t *testing.T) {
	// The transaction helper rewraps serialization failures as ErrConflict;
	// the caller must see a retryable 409, never a 500.
	err := fmt.Errorf("platform/db: commit tx: %w",
		fmt.Errorf("%w: could not serialize access due to concurrent update", ErrConflict))
	require.Equal(t, http.StatusConflict, respondStatus(t, err))
}
