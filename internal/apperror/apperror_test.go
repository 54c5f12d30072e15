package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{LocationRequired, http.StatusBadRequest},
		{CurrentLocationRequired, http.StatusBadRequest},
		{LocationTooBroad, http.StatusBadRequest},
		{InvalidSelection, http.StatusBadRequest},
		{LocationNotFound, http.StatusNotFound},
		{LocationNotSupported, http.StatusUnprocessableEntity},
		{IntentExtractionFailed, http.StatusUnprocessableEntity},
		{AIRateLimited, http.StatusTooManyRequests},
		{AIAuthError, http.StatusBadGateway},
		{AIServiceError, http.StatusServiceUnavailable},
		{LookupError, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("wrapped app error keeps code", func(t *testing.T) {
		err := fmt.Errorf("resolve: %w", New(LocationNotFound))
		got := From(err)
		assert.Equal(t, LocationNotFound, got.Code)
		assert.True(t, Is(err, LocationNotFound))
	})

	t.Run("plain error becomes lookup error", func(t *testing.T) {
		cause := errors.New("boom")
		got := From(cause)
		assert.Equal(t, LookupError, got.Code)
		assert.ErrorIs(t, got, cause)
	})
}

func TestError_Message(t *testing.T) {
	err := Wrap(AIServiceError, errors.New("503"))
	assert.Contains(t, err.Error(), "AI_SERVICE_ERROR")
	assert.Contains(t, err.Error(), "503")

	assert.Equal(t, "INVALID_SELECTION: index 5 out of range", Newf(InvalidSelection, "index %d out of range", 5).Error())
}
