package light

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypePoint emits from a position in all directions with inverse square falloff.
	// Each point light gets its own shadow map.
	LightTypePoint LightType = iota

	// LightTypeAmbient adds constant radiance to every visible surface, scaled by the material's
	// base colour. It has no position and casts no shadow.
	LightTypeAmbient
)

// String returns a short name for the light type.
func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeAmbient:
		return "ambient"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	name         string
	lightType    LightType
	position     mgl32.Vec3
	color        mgl32.Vec3
	power        float32
	nodeToWorld  mgl32.Mat4
	enabled      bool
	castsShadows bool
}

// Light defines the interface for a light source in the scene.
//
// Lights are attached to scene nodes; the node's accumulated transform is stored on the light
// when the scene is collected, so WorldPosition is valid without a back reference to the node.
type Light interface {
	// Name returns the light's identifier, usually the owning node's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (point or ambient)
	Type() LightType

	// Position returns the light's position in its node's local space.
	// Meaningless for ambient lights.
	//
	// Returns:
	//   - mgl32.Vec3: the local position
	Position() mgl32.Vec3

	// WorldPosition returns NodeToWorld applied to Position.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space position
	WorldPosition() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Power returns the scalar power of the light. For point lights this is radiant power;
	// for ambient lights it scales the constant radiance.
	//
	// Returns:
	//   - float32: the power
	Power() float32

	// Radiance returns Color scaled by Power.
	//
	// Returns:
	//   - mgl32.Vec3: the radiance
	Radiance() mgl32.Vec3

	// NodeToWorld returns the transform of the node the light is attached to.
	//
	// Returns:
	//   - mgl32.Mat4: the node-to-world transform
	NodeToWorld() mgl32.Mat4

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether a shadow map is rendered for this light.
	// Always false for ambient lights.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// ShadowCamera returns the perspective camera the shadow pass renders from. It looks from
	// the world position toward the scene origin.
	//
	// Parameters:
	//   - s: shadow projection settings
	//
	// Returns:
	//   - camera.Camera: the light's view
	ShadowCamera(s ShadowSettings) camera.Camera

	// SetPosition sets the local position of the light.
	//
	// Parameters:
	//   - p: the local position
	SetPosition(p mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: the colour
	SetColor(c mgl32.Vec3)

	// SetPower sets the scalar power.
	//
	// Parameters:
	//   - power: the power value
	SetPower(power float32)

	// SetNodeToWorld stores the owning node's accumulated transform.
	//
	// Parameters:
	//   - m: the node-to-world transform
	SetNodeToWorld(m mgl32.Mat4)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with white colour, unit power and an
// identity node transform. Point lights cast shadows unless disabled with WithCastsShadows.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:    lightType,
		color:        mgl32.Vec3{1, 1, 1},
		power:        1.0,
		nodeToWorld:  mgl32.Ident4(),
		enabled:      true,
		castsShadows: lightType == LightTypePoint,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.lightType == LightTypeAmbient {
		l.castsShadows = false
	}
	return l
}

func (l *lightImpl) Name() string {
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) WorldPosition() mgl32.Vec3 {
	return mgl32.TransformCoordinate(l.position, l.nodeToWorld)
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Power() float32 {
	return l.power
}

func (l *lightImpl) Radiance() mgl32.Vec3 {
	return l.color.Mul(l.power)
}

func (l *lightImpl) NodeToWorld() mgl32.Mat4 {
	return l.nodeToWorld
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetPower(power float32) {
	l.power = power
}

func (l *lightImpl) SetNodeToWorld(m mgl32.Mat4) {
	l.nodeToWorld = m
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
