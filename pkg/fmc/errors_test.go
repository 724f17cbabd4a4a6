package fmc_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := &fmc.StatusError{
		StatusCode: http.StatusBadRequest,
		Method:     http.MethodDelete,
		URL:        "/api/fmc_config/v1/domain/d/object/hosts/1",
		Messages:   []string{"Cannot delete the object as it is being used by g."},
	}

	assert.Equal(t,
		"DELETE /api/fmc_config/v1/domain/d/object/hosts/1: HTTP 400: Cannot delete the object as it is being used by g.",
		err.Error())

	bare := &fmc.StatusError{StatusCode: http.StatusNotFound, Method: http.MethodGet, URL: "/x"}
	assert.Equal(t, "GET /x: HTTP 404", bare.Error())
}

func TestStatusClassifiers(t *testing.T) {
	t.Parallel()

	wrap := func(code int) error {
		return fmt.Errorf("outer: %w", &fmc.StatusError{StatusCode: code})
	}

	tests := []struct {
		code            int
		notFound        bool
		unauthorized    bool
		conflict        bool
		tooManyRequests bool
	}{
		{code: http.StatusNotFound, notFound: true},
		{code: http.StatusUnauthorized, unauthorized: true},
		{code: http.StatusBadRequest, conflict: true},
		{code: http.StatusConflict, conflict: true},
		{code: http.StatusUnprocessableEntity, conflict: true},
		{code: http.StatusTooManyRequests, tooManyRequests: true},
		{code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := wrap(tt.code)

		assert.Equal(t, tt.notFound, fmc.IsNotFound(err), tt.code)
		assert.Equal(t, tt.unauthorized, fmc.IsUnauthorized(err), tt.code)
		assert.Equal(t, tt.conflict, fmc.IsConflict(err), tt.code)
		assert.Equal(t, tt.tooManyRequests, fmc.IsTooManyRequests(err), tt.code)
	}

	assert.False(t, fmc.IsNotFound(fmc.ErrNameNotFound))
	assert.False(t, fmc.IsConflict(nil))
}
