package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyFromGLFW(t *testing.T) {
	assert.Equal(t, Key1, keyFromGLFW(glfw.Key1))
	assert.Equal(t, Key3, keyFromGLFW(glfw.Key3))
	assert.Equal(t, KeyS, keyFromGLFW(glfw.KeyS))
	assert.Equal(t, KeyUnknown, keyFromGLFW(glfw.KeyEscape), "escape is handled by the window")
	assert.Equal(t, KeyUnknown, keyFromGLFW(glfw.KeyZ))
}

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	for _, opt := range []WindowBuilderOption{WithTitle("x"), WithWidth(1024), WithHeight(768), WithSizeLimits(1, 2, 3, 4)} {
		opt(&s)
	}
	assert.Equal(t, settings{title: "x", width: 1024, height: 768, minWidth: 1, minHeight: 2, maxWidth: 3, maxHeight: 4}, s)
	assert.Equal(t, 700, defaultSettings().width)
}
