package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized},
		{"upstream", New(KindUpstream, "down"), http.StatusBadGateway},
		{"unavailable", Unavailable("offline", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("loading: %w", Forbidden("no")), http.StatusForbidden},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Inquiry not found", Message(NotFound("Inquiry not found")))
	assert.Equal(t, GenericMessage, Message(errors.New("socket closed")))
	assert.Equal(t, GenericMessage, Message(New(KindUpstream, "")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("list: %w", Unavailable("API unreachable", cause).WithOp("list"))

	assert.True(t, Is(err, KindUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnknown, GetKind(cause))
}
