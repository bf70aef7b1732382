package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawtfeel/livesync/internal/errors"
)

func TestError_MessageFormat(t *testing.T) {
	err := errors.Connectivity("dial failed", stderrors.New("refused"))
	assert.Equal(t, "connectivity: dial failed: refused", err.Error())

	err = errors.DataRange("start after end")
	assert.Equal(t, "data_range: start after end", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := errors.Exhaustion("gave up", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestAs_ThroughWrapping(t *testing.T) {
	inner := errors.Protocol("bad payload", nil)
	wrapped := fmt.Errorf("dispatch: %w", inner)

	structured, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, errors.KindProtocol, structured.Kind)
}

func TestIsKind(t *testing.T) {
	assert.True(t, errors.IsKind(errors.DataRange("x"), errors.KindDataRange))
	assert.False(t, errors.IsKind(errors.DataRange("x"), errors.KindProtocol))
	assert.False(t, errors.IsKind(stderrors.New("plain"), errors.KindDataRange))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connectivity without status", errors.Connectivity("dial failed", nil), true},
		{"http 500", errors.HTTPStatus(500, "server error"), true},
		{"http 503", errors.HTTPStatus(503, "unavailable"), true},
		{"http 408", errors.HTTPStatus(408, "timeout"), true},
		{"http 429", errors.HTTPStatus(429, "rate limited"), true},
		{"http 404", errors.HTTPStatus(404, "not found"), false},
		{"http 400", errors.HTTPStatus(400, "bad request"), false},
		{"protocol error", errors.Protocol("garbage", nil), false},
		{"data range error", errors.DataRange("inverted"), false},
		{"plain error", stderrors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.IsRetryable(tt.err))
		})
	}
}
