package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad %s", "input"), http.StatusBadRequest},
		{"not found", NotFound("product %d", 3), http.StatusNotFound},
		{"insufficient data", InsufficientData("empty"), http.StatusUnprocessableEntity},
		{"untrained", ModelNotTrained("train first"), http.StatusConflict},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("role"), http.StatusForbidden},
		{"wrapped twice", fmt.Errorf("load: %w", NotFound("sale 9")), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessagesKeepContext(t *testing.T) {
	err := NotFound("product %d not found", 12)
	assert.Equal(t, "product 12 not found: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}
