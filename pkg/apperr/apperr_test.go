package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:  http.StatusBadRequest,
		KindAuth:        http.StatusUnauthorized,
		KindConflict:    http.StatusConflict,
		KindNotFound:    http.StatusNotFound,
		KindRateLimited: http.StatusTooManyRequests,
		KindUpstream:    http.StatusBadGateway,
		KindInternal:    http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.Status(), k.String())
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	e := From(errors.New("boom"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "Internal server error", e.Message)
}

func TestFromFindsWrappedError(t *testing.T) {
	inner := RateLimited("slow down", 3*time.Second)
	err := fmt.Errorf("soil: %w", inner)

	e := From(err)
	require.Same(t, inner, e)
	assert.True(t, Is(err, KindRateLimited))
	assert.False(t, Is(err, KindAuth))
	assert.Equal(t, 3*time.Second, e.RetryAfter)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Upstream("weather provider failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream")
}
