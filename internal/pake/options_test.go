package pake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		product string
		target  Platform
		wantErr bool
	}{
		{"empty name", "", PlatformMac, true},
		{"whitespace only", "   ", PlatformLinux, true},
		{"simple ascii mac", "MyApp", PlatformMac, false},
		{"unicode on windows", "我的应用", PlatformWindows, false},
		{"valid linux", "my-app", PlatformLinux, false},
		{"single char linux", "a", PlatformLinux, false},
		{"uppercase on linux", "MyApp", PlatformLinux, true},
		{"underscore on linux", "my_app", PlatformLinux, true},
		{"leading dash on linux", "-app", PlatformLinux, true},
		{"trailing dash on linux", "app-", PlatformLinux, true},
		{"unicode on linux", "我的应用", PlatformLinux, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.product, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNameErrorClass(t *testing.T) {
	assert.ErrorIs(t, ValidateName("", PlatformMac), errInvalidName)
	assert.ErrorIs(t, ValidateName("My App", PlatformLinux), errInvalidName)
	assert.NoError(t, ValidateName("my-app", PlatformLinux))
}

func TestIconSlug(t *testing.T) {
	assert.Equal(t, "myapp", iconSlug("MyApp"))
	assert.Equal(t, "my-app", iconSlug("my-app"))

	// Non-ASCII names get the md5-derived substitute the packaged runtime
	// looks icons up under.
	slug := iconSlug("我的应用")
	assert.Len(t, slug, 11)
	assert.Regexp(t, `^app[0-9a-f]{8}$`, slug)
	// Stable across calls
	assert.Equal(t, slug, iconSlug("我的应用"))
	// Different names, different substitutes
	assert.NotEqual(t, slug, iconSlug("别的应用"))
}

func TestHasNonASCII(t *testing.T) {
	assert.False(t, hasNonASCII("plain ascii 123"))
	assert.True(t, hasNonASCII("caffè"))
	assert.True(t, hasNonASCII("我的应用"))
}
