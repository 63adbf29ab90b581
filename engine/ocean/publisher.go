package ocean

import "fmt"

// Slot identifies one of the three textures the ocean publishes each frame.
type Slot int

const (
	// SlotDisplacement holds the normalized height field.
	SlotDisplacement Slot = iota

	// SlotGradX holds the normalized x gradient of the height field.
	SlotGradX

	// SlotGradZ holds the normalized z gradient of the height field.
	SlotGradZ

	// SlotCount is the number of published textures.
	SlotCount
)

// String returns the texture label for the slot.
func (s Slot) String() string {
	switch s {
	case SlotDisplacement:
		return "ocean_displacement"
	case SlotGradX:
		return "ocean_grad_x"
	case SlotGradZ:
		return "ocean_grad_z"
	}
	return fmt.Sprintf("ocean_slot_%d", int(s))
}

// Fields is the set of spatial fields produced by one simulation tick.
type Fields struct {
	Displacement Field
	GradX        Field
	GradZ        Field

	// Time is the simulation time the fields were evaluated at.
	Time float64

	// MaxImag is the largest imaginary residue left by the inverse transforms.
	MaxImag float64
}

// Field returns the field for a slot.
func (f *Fields) Field(s Slot) *Field {
	switch s {
	case SlotDisplacement:
		return &f.Displacement
	case SlotGradX:
		return &f.GradX
	case SlotGradZ:
		return &f.GradZ
	}
	return nil
}

// Publisher uploads ocean fields to wherever the geometry passes sample them from.
// The renderer implements it by writing three single-channel float textures plus the decode
// parameters into the ocean uniform.
type Publisher interface {
	// PublishOcean uploads the fields. Called once per frame after the simulation tick and
	// before the passes that consume them.
	//
	// Parameters:
	//   - fields: the fields to publish
	//
	// Returns:
	//   - error: an error if the upload fails
	PublishOcean(fields *Fields) error
}
