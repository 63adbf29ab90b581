package window

import "github.com/go-gl/glfw/v3.3/glfw"

// Key identifies a keyboard key independently of the windowing library.
type Key int

// Keys the viewer binds.
const (
	KeyUnknown Key = iota
	Key1
	Key2
	Key3
	KeyB
	KeyP
	KeyA
	KeyS
)

var glfwKeys = map[glfw.Key]Key{
	glfw.Key1: Key1,
	glfw.Key2: Key2,
	glfw.Key3: Key3,
	glfw.KeyB: KeyB,
	glfw.KeyP: KeyP,
	glfw.KeyA: KeyA,
	glfw.KeyS: KeyS,
}

func keyFromGLFW(k glfw.Key) Key {
	if key, ok := glfwKeys[k]; ok {
		return key
	}
	return KeyUnknown
}
