package pake

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, exitInvalidOptions, exitCodeFor(ValidateName("", PlatformLinux)))
	assert.Equal(t, exitMissingToolchain, exitCodeFor(fmt.Errorf("prepare: %w", errMissingToolchain)))
	assert.Equal(t, exitFailure, exitCodeFor(errors.New("build command failed")))
}
