package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraController orbits a Camera's eye around its target on a sphere.
// Each call writes the new eye back to the camera.
type CameraController interface {
	// OrbitLeft rotates the eye around the target's vertical axis by one step.
	OrbitLeft()

	// OrbitRight rotates the eye around the target's vertical axis by one step.
	OrbitRight()

	// OrbitUp raises the eye by one step, clamped below the pole.
	OrbitUp()

	// OrbitDown lowers the eye by one step, clamped above the horizon.
	OrbitDown()

	// Zoom moves the eye toward (positive delta) or away from the target.
	//
	// Parameters:
	//   - delta: zoom amount in steps
	Zoom(delta float32)

	// Radius returns the distance from the eye to the target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32
}

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrbitSpeed sets the angle in radians applied per orbit step.
//
// Parameters:
//   - speed: radians per step
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the distance applied per zoom step.
//
// Parameters:
//   - speed: world units per step
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithRadiusLimits clamps the orbit radius.
//
// Parameters:
//   - minRadius: smallest allowed radius
//   - maxRadius: largest allowed radius
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithRadiusLimits(minRadius, maxRadius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = minRadius
		cc.maxRadius = maxRadius
	}
}

type cameraControllerImpl struct {
	mu  *sync.Mutex
	cam Camera

	radius    float32
	azimuth   float32 // around +y, measured from +z
	elevation float32 // above the xz plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates a controller whose spherical coordinates start at the camera's
// current eye relative to its target.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(cam Camera, options ...CameraControllerOption) CameraController {
	offset := cam.Eye().Sub(cam.Target())
	radius := offset.Len()

	cc := &cameraControllerImpl{
		mu:           &sync.Mutex{},
		cam:          cam,
		radius:       radius,
		minRadius:    0.5,
		maxRadius:    500,
		minElevation: -float32(math.Pi/2 - 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),
		orbitSpeed:   0.03,
		zoomSpeed:    0.25,
	}
	if radius > 0 {
		cc.azimuth = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
		cc.elevation = float32(math.Asin(float64(offset.Y() / radius)))
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth -= cc.orbitSpeed
	cc.updateEye()
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += cc.orbitSpeed
	cc.updateEye()
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = min(cc.elevation+cc.orbitSpeed, cc.maxElevation)
	cc.updateEye()
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = max(cc.elevation-cc.orbitSpeed, cc.minElevation)
	cc.updateEye()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = mgl32.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updateEye()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

// updateEye writes target + spherical offset to the camera. Caller must hold the mutex.
func (cc *cameraControllerImpl) updateEye() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	offset := mgl32.Vec3{cosElev * sinAzim, sinElev, cosElev * cosAzim}.Mul(cc.radius)
	cc.cam.SetEye(cc.cam.Target().Add(offset))
}
