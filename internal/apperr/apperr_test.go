package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeStatus(t *testing.T) {
	cases := map[Code]int{
		UserNotFound:          http.StatusNotFound,
		ImageNotFound:         http.StatusNotFound,
		NotFound:              http.StatusNotFound,
		UserAlreadyExists:     http.StatusConflict,
		InvalidImageFormat:    http.StatusBadRequest,
		ValidationFailed:      http.StatusBadRequest,
		ImageGenerationFailed: http.StatusInternalServerError,
		ImageUploadFailed:     http.StatusInternalServerError,
		ImageRetrievalFailed:  http.StatusInternalServerError,
		InternalError:         http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, code.Status(), string(code))
	}
}

func TestWrapAppendsUpstreamMessage(t *testing.T) {
	upstream := errors.New("status=502")
	err := Wrap(ImageGenerationFailed, "Failed to generate image", upstream)

	assert.Equal(t, "Failed to generate image: status=502", err.Message)
	assert.ErrorIs(t, err, upstream)
	assert.True(t, Is(err, ImageGenerationFailed))
}

func TestWrapNilBehavesLikeNew(t *testing.T) {
	err := Wrap(ImageNotFound, "Image not found", nil)
	assert.Equal(t, "Image not found", err.Message)
	assert.Nil(t, err.Err)
}

func TestFromKeepsApplicationErrors(t *testing.T) {
	original := New(UserNotFound, "User not found")
	wrapped := fmt.Errorf("handler: %w", original)

	got := From(wrapped)
	require.NotNil(t, got)
	assert.Same(t, original, got)
}

func TestFromHidesUnknownErrors(t *testing.T) {
	got := From(errors.New("dial tcp 10.0.0.1:27017: connection refused"))
	require.NotNil(t, got)
	assert.Equal(t, InternalError, got.Code)
	assert.Equal(t, "Internal server error", got.Message)
	assert.Nil(t, From(nil))
}
