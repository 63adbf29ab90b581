package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns a node tree, the camera it is viewed through, and the typed collections walked out
// of the tree at construction. Lights and meshes are fixed once the scene is built; node
// transforms may change and are picked up by Refresh.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Root returns the root node of the scene tree.
	Root() *Node

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Collections returns the typed collections gathered from the tree. The returned value is
	// shared; callers must not modify the slices.
	//
	// Returns:
	//   - *Collections: the mesh instances, lights and bird nodes
	Collections() *Collections

	// AddLight attaches a light to a new child of the root and re-collects the tree.
	// Used for lights that do not come from the scene file.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// Refresh recomputes world transforms for every mesh instance and light after node
	// transforms changed.
	Refresh()
}

type scene struct {
	mu    *sync.RWMutex
	name  string
	root  *Node
	cam   camera.Camera
	colls *Collections
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a Scene around a node tree and walks it once to build the collections.
// Panics if root is nil.
//
// Parameters:
//   - name: the name of the scene
//   - root: the root node (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, root *Node, options ...SceneBuilderOption) Scene {
	if root == nil {
		panic("scene: NewScene requires a non-nil root node")
	}

	s := &scene{
		mu:   &sync.RWMutex{},
		name: name,
		root: root,
	}
	for _, option := range options {
		option(s)
	}
	if s.cam == nil {
		s.cam = camera.NewCamera()
	}
	s.colls = collect(s.root)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Collections() *Collections {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colls
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := l.Name()
	if name == "" {
		name = l.Type().String() + "_light"
	}
	n := NewNode(name, mgl32.Ident4())
	n.Light = l
	s.root.AddChild(n)
	s.colls = collect(s.root)
}

func (s *scene) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.colls.Meshes {
		mi := &s.colls.Meshes[i]
		mi.Model = mi.Node.World()
	}
	for _, l := range s.colls.PointLights {
		if n := s.colls.lightNodes[l]; n != nil {
			l.SetNodeToWorld(n.World())
		}
	}
}
