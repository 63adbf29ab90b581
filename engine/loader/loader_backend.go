package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
)

// loaderBackend defines the generic interface for loading scenes from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the scene stored at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - scene.Scene: the imported scene
	//   - error: error if loading fails
	Load(path string) (scene.Scene, error)

	// LoadReader imports a scene from a reader stream.
	//
	// Parameters:
	//   - name: the name given to the scene
	//   - r: the reader providing scene data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - scene.Scene: the imported scene
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (scene.Scene, error)

	// Extensions lists the lower-case file extensions the backend accepts, including the dot.
	Extensions() []string
}
