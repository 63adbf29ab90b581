package flock

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Position is a bird's world-space position.
type Position struct {
	mgl32.Vec3
}

// Velocity is a bird's world-space velocity in units per second.
type Velocity struct {
	mgl32.Vec3
}

// Body links an entity to the scene node it drives.
type Body struct {
	Node *scene.Node
}
