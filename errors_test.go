package hamidx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapCorruptNilIsNil(t *testing.T) {
	assert.Nil(t, WrapCorrupt(nil))
}

func TestWrapCorruptUnwraps(t *testing.T) {
	cause := errors.New("truncated stream")
	err := WrapCorrupt(cause)

	var corrupt *ErrCorrupt
	assert.True(t, errors.As(err, &corrupt))
	assert.ErrorIs(t, err, cause)
}
