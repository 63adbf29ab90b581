package flock

import (
	"math/rand"
	"sync"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
	"github.com/rs/zerolog"
)

// Wall is a plane birds bounce off. Normal points into the allowed half-space.
type Wall struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// distance is the signed distance of p from the wall, negative behind it.
func (w Wall) distance(p mgl32.Vec3) float32 {
	return p.Sub(w.Point).Dot(w.Normal)
}

// DefaultWalls returns the inward-facing sides of the box [-half, half] x [floor, floor+height] x [-half, half].
//
// Parameters:
//   - half: half the box width along X and Z
//   - floor: the lowest allowed height
//   - height: the box height
//
// Returns:
//   - []Wall: six walls
func DefaultWalls(half, floor, height float32) []Wall {
	return []Wall{
		{Point: mgl32.Vec3{-half, 0, 0}, Normal: mgl32.Vec3{1, 0, 0}},
		{Point: mgl32.Vec3{half, 0, 0}, Normal: mgl32.Vec3{-1, 0, 0}},
		{Point: mgl32.Vec3{0, floor, 0}, Normal: mgl32.Vec3{0, 1, 0}},
		{Point: mgl32.Vec3{0, floor + height, 0}, Normal: mgl32.Vec3{0, -1, 0}},
		{Point: mgl32.Vec3{0, 0, -half}, Normal: mgl32.Vec3{0, 0, 1}},
		{Point: mgl32.Vec3{0, 0, half}, Normal: mgl32.Vec3{0, 0, -1}},
	}
}

// flockImpl is the implementation of the Flock interface.
type flockImpl struct {
	mu     sync.Mutex
	logger zerolog.Logger

	walls []Wall
	speed float32
	seed  int64
	start *mgl32.Vec3

	world  *ecs.World
	mapper *ecs.Map3[Position, Velocity, Body]
	filter *ecs.Filter3[Position, Velocity, Body]
	count  int
}

// Flock moves bird nodes in straight lines and reflects them off its walls.
// Each bird is an ECS entity carrying its position, velocity and scene node.
// Thread-safe for concurrent access.
type Flock interface {
	// Update advances every bird by dt seconds and writes the new positions into the bird nodes.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Update(dt float32)

	// Walls returns a copy of the walls.
	Walls() []Wall

	// AddWall adds a wall. Its normal is normalized; a zero normal is ignored.
	//
	// Parameters:
	//   - w: the wall
	AddWall(w Wall)

	// Len returns the number of birds.
	Len() int
}

var _ Flock = &flockImpl{}

// NewFlock creates an entity per bird node. Each bird starts at its node's world position with a
// random horizontal heading at the configured speed, unless WithInitialVelocity is given.
//
// Parameters:
//   - birds: the bird nodes, usually scene.Collections().Birds
//   - options: functional options to configure the flock
//
// Returns:
//   - Flock: the flock
func NewFlock(birds []*scene.Node, options ...FlockBuilderOption) Flock {
	f := &flockImpl{
		logger: zerolog.Nop(),
		walls:  DefaultWalls(20, 1, 10),
		speed:  2,
		seed:   1,
	}
	for _, option := range options {
		option(f)
	}

	f.world = ecs.NewWorld()
	f.mapper = ecs.NewMap3[Position, Velocity, Body](f.world)
	f.filter = ecs.NewFilter3[Position, Velocity, Body](f.world)

	rng := rand.New(rand.NewSource(f.seed))
	for _, n := range birds {
		pos := Position{n.World().Col(3).Vec3()}
		vel := Velocity{}
		if f.start != nil {
			vel.Vec3 = *f.start
		} else {
			heading := rng.Float32() * 2 * math32.Pi
			vel.Vec3 = mgl32.Vec3{math32.Cos(heading), 0, math32.Sin(heading)}.Mul(f.speed)
		}
		body := Body{Node: n}
		f.mapper.NewEntity(&pos, &vel, &body)
		f.count++
	}

	f.logger.Debug().Int("birds", f.count).Int("walls", len(f.walls)).Msg("flock created")
	return f
}

func (f *flockImpl) Update(dt float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := f.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()

		pos.Vec3 = pos.Add(vel.Mul(dt))
		for _, w := range f.walls {
			if d := w.distance(pos.Vec3); d < 0 {
				pos.Vec3 = pos.Sub(w.Normal.Mul(2 * d))
				if vn := vel.Dot(w.Normal); vn < 0 {
					vel.Vec3 = vel.Sub(w.Normal.Mul(2 * vn))
				}
			}
		}
		place(body.Node, pos.Vec3)
	}
}

// place sets the node's local translation so its world position is p. Rotation and scale are kept.
func place(n *scene.Node, p mgl32.Vec3) {
	local := p
	if parent := n.Parent(); parent != nil {
		local = parent.World().Inv().Mul4x1(p.Vec4(1)).Vec3()
	}
	n.Local.SetCol(3, local.Vec4(1))
}

func (f *flockImpl) Walls() []Wall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Wall, len(f.walls))
	copy(out, f.walls)
	return out
}

func (f *flockImpl) AddWall(w Wall) {
	if w.Normal.Len() == 0 {
		return
	}
	w.Normal = w.Normal.Normalize()
	f.mu.Lock()
	f.walls = append(f.walls, w)
	f.mu.Unlock()
}

func (f *flockImpl) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}
