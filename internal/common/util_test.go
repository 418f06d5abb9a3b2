package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestValidationErrors_WrapParent(t *testing.T) {
	for _, err := range []error{ErrEmptyBody, ErrBodyTooLong, ErrEmptyIdentifier, ErrMalformedEmail, ErrPasswordTooShort, ErrHandleTooShort, ErrEmptySearch} {
		assert.True(t, errors.Is(err, ErrValidation), err.Error())
	}
	assert.False(t, errors.Is(ErrHandleTaken, ErrValidation))
}
