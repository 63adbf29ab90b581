package renderer

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrTargetAllocation is wrapped by every error returned when a render target cannot be created.
var ErrTargetAllocation = errors.New("render target allocation failed")

// Format is a backend-neutral texel format for render target attachments.
type Format int

const (
	// FormatRGBA32Float holds full precision G-buffer positions.
	FormatRGBA32Float Format = iota

	// FormatRGBA16Float holds G-buffer normals and HDR radiance in the accumulation and blur chains.
	FormatRGBA16Float

	// FormatRGBA8Unorm holds low precision material data.
	FormatRGBA8Unorm
)

// DepthIndex selects a target's depth attachment in an Attachment.
const DepthIndex = -1

// AllLevels selects every mip level of a target in an Attachment.
const AllLevels = -1

// TargetDesc describes a render target to create.
type TargetDesc struct {
	Label  string
	Width  int
	Height int
	Colors []Format
	Depth  bool
	Levels int
}

// Target is a backend-owned collection of attachments with a shared size.
type Target interface {
	// Label returns the debug label the target was created with.
	Label() string

	// Width returns the width of mip level 0 in texels.
	Width() int

	// Height returns the height of mip level 0 in texels.
	Height() int

	// Levels returns the number of mip levels of every colour attachment.
	Levels() int

	// Desc returns the descriptor the target was created from.
	Desc() TargetDesc
}

// MipLevels returns the length of a full mip chain for a width×height texture.
func MipLevels(width, height int) int {
	return bits.Len(uint(max(width, height, 1)))
}

// targetSet holds every target the deferred path renders into. Viewport-sized targets are
// rebuilt together; shadow targets have a fixed size and only grow in number.
type targetSet struct {
	width  int
	height int
	levels int

	gbuffer Target
	acc     Target
	temp1   Target
	temp2   Target
	shadows []Target
}

// viewportTargets lists the viewport-sized targets that exist.
func (s *targetSet) viewportTargets() []Target {
	var out []Target
	for _, t := range []Target{s.gbuffer, s.acc, s.temp1, s.temp2} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// matches reports whether every viewport target exists at the given size and mip chain length.
func (s *targetSet) matches(width, height, levels int) bool {
	if s.gbuffer == nil || s.acc == nil || s.temp1 == nil || s.temp2 == nil {
		return false
	}
	return s.width == width && s.height == height && s.levels == levels
}

// ensureTargets creates the viewport-sized targets at the current viewport if they are missing
// or stale, and one shadow target per point light. Existing targets of the right size are
// reused. The bloom chains always carry the full mip chain of the viewport, so bloom level
// settings never force a rebuild. Shadow targets keep the resolution they were first created with.
func (r *renderer) ensureTargets(shadowCount int) error {
	ts := &r.targets
	levels := MipLevels(r.width, r.height)
	if !ts.matches(r.width, r.height, levels) {
		for _, t := range ts.viewportTargets() {
			r.backend.ReleaseTarget(t)
		}
		// A failed rebuild below must not leave the old size recorded.
		ts.gbuffer, ts.acc, ts.temp1, ts.temp2 = nil, nil, nil, nil
		ts.width, ts.height, ts.levels = 0, 0, 0
		descs := []struct {
			dst  *Target
			desc TargetDesc
		}{
			{&ts.gbuffer, TargetDesc{
				Label:  "gbuffer",
				Colors: []Format{FormatRGBA32Float, FormatRGBA16Float, FormatRGBA8Unorm},
				Depth:  true,
				Levels: 1,
			}},
			{&ts.acc, TargetDesc{Label: "accumulation", Colors: []Format{FormatRGBA16Float}, Levels: levels}},
			{&ts.temp1, TargetDesc{Label: "bloom_temp1", Colors: []Format{FormatRGBA16Float}, Levels: levels}},
			{&ts.temp2, TargetDesc{Label: "bloom_temp2", Colors: []Format{FormatRGBA16Float}, Levels: levels}},
		}
		for _, d := range descs {
			d.desc.Width, d.desc.Height = r.width, r.height
			t, err := r.createTarget(d.desc)
			if err != nil {
				return err
			}
			*d.dst = t
		}
		ts.width, ts.height, ts.levels = r.width, r.height, levels

		r.logger.Debug().Int("width", r.width).Int("height", r.height).Int("levels", levels).Msg("viewport targets built")
	}

	res := r.settings.Shadow.Resolution
	for i := len(ts.shadows); i < shadowCount; i++ {
		t, err := r.createTarget(TargetDesc{
			Label:  fmt.Sprintf("shadow_%d", i),
			Width:  res,
			Height: res,
			Depth:  true,
			Levels: 1,
		})
		if err != nil {
			return err
		}
		ts.shadows = append(ts.shadows, t)
	}
	return nil
}

func (r *renderer) createTarget(desc TargetDesc) (Target, error) {
	t, err := r.backend.CreateTarget(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %dx%d: %w", ErrTargetAllocation, desc.Label, desc.Width, desc.Height, err)
	}
	return t, nil
}
