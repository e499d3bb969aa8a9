package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMappings(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("busy"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("nope"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("failed to save", WithCause(cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save: disk full", err.Error())
}

func TestDetailsMerge(t *testing.T) {
	err := Conflict("cannot move order",
		WithDetail("from", "delivered"),
		WithDetails(map[string]any{"to": "preparing", "order_id": int64(7)}))

	assert.Equal(t, map[string]any{
		"from":     "delivered",
		"to":       "preparing",
		"order_id": int64(7),
	}, err.Details())
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	orig := NotFound("order not found")
	assert.Same(t, orig, From(orig))
	assert.Same(t, orig, From(fmt.Errorf("handler: %w", orig)))

	wrapped := From(errors.New("dial tcp: refused"))
	require.NotNil(t, wrapped)
	assert.Equal(t, KindInternal, wrapped.Kind())
	assert.Equal(t, http.StatusInternalServerError, wrapped.StatusCode())
}
