package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "fetch %s", "POPULATION/AQUALAB")

	assert.Contains(t, wrapped.Error(), "fetch POPULATION/AQUALAB")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found marked", NewNotFoundError("game %q", "NOPE"), IsNotFoundError, true},
		{"not found wrapped", Wrap(ErrNotFound, "cache"), IsNotFoundError, true},
		{"invalid request", NewInvalidRequestError("bad range"), IsInvalidRequestError, true},
		{"service unavailable", Wrap(ErrServiceUnavailable, "upstream"), IsServiceUnavailableError, true},
		{"superseded", Wrap(ErrSuperseded, "generation 3"), IsSupersededError, true},
		{"unrelated", New("boom"), IsNotFoundError, false},
		{"nil", nil, IsSupersededError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestMarkedErrorKeepsMessage(t *testing.T) {
	err := NewNotFoundError("visualizer %q", "Sankey")
	assert.Equal(t, `visualizer "Sankey"`, err.Error())
}

func TestHints(t *testing.T) {
	err := WithHint(New("start after end"), "pick an earlier start date")
	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "pick an earlier start date", hints[0])
}

type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %s", e.status)
}

func TestAs(t *testing.T) {
	wrapped := Wrap(&statusError{status: "FAILURE"}, "decode envelope")

	var target *statusError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "FAILURE", target.status)
}
