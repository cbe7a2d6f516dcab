package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := DatabaseError("failed to create article", cause, map[string]any{"link": "https://example.com/a"})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.Contains(t, err.Error(), "connection refused")

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeDatabase, appErr.Code)
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, Code(ValidationError("bad input", nil)))
	assert.Equal(t, ErrCodeUnknown, Code(stderrors.New("plain")))
	assert.Equal(t, ErrCodeUnknown, Code(nil))
}

func TestCodeThroughWrapping(t *testing.T) {
	inner := NetworkError("fetch failed", stderrors.New("dial tcp"), nil)
	outer := ExternalAPIError("extractor call failed", inner, nil)

	// The outermost code wins.
	assert.Equal(t, ErrCodeExternalAPI, Code(outer))
	assert.ErrorIs(t, outer, inner)
}
