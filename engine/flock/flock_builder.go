package flock

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// FlockBuilderOption is a functional option for configuring a Flock via NewFlock.
type FlockBuilderOption func(*flockImpl)

// WithWalls replaces the default walls. Normals are normalized and zero normals dropped.
//
// Parameters:
//   - walls: the walls
//
// Returns:
//   - FlockBuilderOption: a function that applies the walls option to a flock
func WithWalls(walls ...Wall) FlockBuilderOption {
	return func(f *flockImpl) {
		f.walls = f.walls[:0:0]
		for _, w := range walls {
			if w.Normal.Len() == 0 {
				continue
			}
			w.Normal = w.Normal.Normalize()
			f.walls = append(f.walls, w)
		}
	}
}

// WithSpeed sets the speed of the random initial headings.
func WithSpeed(speed float32) FlockBuilderOption {
	return func(f *flockImpl) {
		f.speed = speed
	}
}

// WithSeed seeds the random initial headings.
func WithSeed(seed int64) FlockBuilderOption {
	return func(f *flockImpl) {
		f.seed = seed
	}
}

// WithInitialVelocity gives every bird the same starting velocity instead of a random heading.
func WithInitialVelocity(v mgl32.Vec3) FlockBuilderOption {
	return func(f *flockImpl) {
		f.start = &v
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) FlockBuilderOption {
	return func(f *flockImpl) {
		f.logger = logger
	}
}
