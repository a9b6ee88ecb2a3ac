package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"config", ErrConfigMissing("VEXA_API_KEY"), KindConfiguration},
		{"validation", ErrInvalidArgument("meeting_id is required"), KindValidation},
		{"platform", ErrUnsupportedPlatform("https://zoom.us/j/1"), KindValidation},
		{"transport", ErrUpstreamTransport("vexa", stdErrors.New("dial tcp")), KindUpstreamTransport},
		{"upstream api", ErrUpstreamAPI("gemini", 403, "API key not valid"), KindUpstreamAPI},
		{"store", ErrDBQueryFailed("update meeting", stdErrors.New("boom")), KindStore},
		{"wrapped", fmt.Errorf("outer: %w", ErrMeetingNotFound("m1")), KindStore},
		{"plain", stdErrors.New("plain"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStatusByKind(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrConfigMissing("GEMINI_API_KEY").HTTPCode)
	assert.Equal(t, http.StatusBadRequest, ErrInvalidPayload().HTTPCode)
	assert.Equal(t, http.StatusInternalServerError, ErrUpstreamAPI("vexa", 404, "not found").HTTPCode)
	assert.Equal(t, http.StatusConflict, ErrBotStartInProgress("m1").HTTPCode)
}

func TestWithDetailDoesNotShareMap(t *testing.T) {
	base := ErrInvalidArgument("bad")
	a := base.WithDetail("field", "a")
	b := a.WithDetail("field", "b")

	assert.Nil(t, base.Details)
	assert.Equal(t, "a", a.Details["field"])
	assert.Equal(t, "b", b.Details["field"])
}

func TestUnwrap(t *testing.T) {
	raw := stdErrors.New("connection refused")
	err := ErrUpstreamTransport("vexa", raw)

	assert.True(t, stdErrors.Is(err, raw))

	appErr, ok := As(fmt.Errorf("ctx: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrorCode_UPSTREAM_UNREACHABLE, appErr.Code)
	assert.Equal(t, "vexa", appErr.Details["service"])
}
