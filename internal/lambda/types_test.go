package lambda

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearskies-aero/clearskies/internal/monitor"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthenticated", monitor.ErrUnauthenticated, "unauthenticated"},
		{"not found wrapped", fmt.Errorf("%w: bk-1", monitor.ErrNotFound), "not-found"},
		{"permission denied", monitor.ErrPermissionDenied, "permission-denied"},
		{"not scheduled", monitor.ErrNotScheduled, "failed-precondition"},
		{"not configured", monitor.ErrNotConfigured, "failed-precondition"},
		{"validation", types.NewValidationError("bookingId", "must be a non-empty string"), "invalid-argument"},
		{"transport", &types.TransportError{Provider: "weatherapi", Attempts: 4}, "unavailable"},
		{"unknown", errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("CS_TEST_INT", "12")
	assert.Equal(t, 12, envInt("CS_TEST_INT"))
	t.Setenv("CS_TEST_INT", "twelve")
	assert.Zero(t, envInt("CS_TEST_INT"))
	t.Setenv("CS_TEST_INT", "")
	assert.Zero(t, envInt("CS_TEST_INT"))
}
