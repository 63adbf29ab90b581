package renderer

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
)

// MaxBloomLevels is the number of bloom levels the merge pass can combine.
const MaxBloomLevels = 4

// MaxBlurRadius is the largest number of taps on each side of the kernel centre.
const MaxBlurRadius = 15

// BloomLevel is one level of the bloom pyramid: a Gaussian blur of the accumulation target at a
// mip level, added to the final image with a weight.
type BloomLevel struct {
	// Stdev is the blur standard deviation in full resolution pixels.
	Stdev float32
	// Level is the mip level of the accumulation target that is blurred.
	Level int
	// Weight scales the blurred level in the merge pass.
	Weight float32
}

// DefaultBloomLevels returns the default four level pyramid.
//
// Returns:
//   - []BloomLevel: a new slice holding the default levels
func DefaultBloomLevels() []BloomLevel {
	return []BloomLevel{
		{Stdev: 6.2, Level: 2, Weight: 0.12},
		{Stdev: 24.9, Level: 4, Weight: 0.08},
		{Stdev: 81.0, Level: 6, Weight: 0.05},
		{Stdev: 263.0, Level: 8, Weight: 0.03},
	}
}

// Kernel computes the one sided weights of a normalized Gaussian for a blur of stdev full
// resolution pixels evaluated at mip level. The kernel is truncated at three standard deviations
// and at MaxBlurRadius taps. weights[0] is the centre tap and weights[0] + 2·Σweights[1:] = 1.
//
// Parameters:
//   - stdev: standard deviation in full resolution pixels
//   - level: the mip level the kernel is applied at
//
// Returns:
//   - [16]float32: the centre weight followed by one weight per tap
//   - int: the number of taps on each side of the centre
func Kernel(stdev float32, level int) ([MaxBlurRadius + 1]float32, int) {
	var w [MaxBlurRadius + 1]float32

	sigma := stdev / math32.Pow(2, float32(level))
	if sigma < 1e-3 {
		w[0] = 1
		return w, 0
	}

	radius := min(int(math32.Ceil(3*sigma)), MaxBlurRadius)
	sum := float32(0)
	for i := 0; i <= radius; i++ {
		x := float32(i)
		w[i] = math32.Exp(-x * x / (2 * sigma * sigma))
		if i == 0 {
			sum += w[i]
		} else {
			sum += 2 * w[i]
		}
	}
	for i := 0; i <= radius; i++ {
		w[i] /= sum
	}
	return w, radius
}

// bloomPlan resolves the configured levels against a mip chain of the given length. Levels past
// the end of the chain clamp to the last mip. Levels that land on the same mip are merged: their
// weights add and the widest blur wins. The result is sorted by mip level so the pass sequence
// does not depend on configuration order.
func bloomPlan(configured []BloomLevel, mipLevels int) []BloomLevel {
	last := max(mipLevels-1, 0)
	byLevel := make(map[int]BloomLevel, len(configured))
	for _, c := range configured {
		l := min(max(c.Level, 0), last)
		if prev, ok := byLevel[l]; ok {
			prev.Weight += c.Weight
			prev.Stdev = max(prev.Stdev, c.Stdev)
			byLevel[l] = prev
			continue
		}
		c.Level = l
		byLevel[l] = c
	}

	plan := make([]BloomLevel, 0, len(byLevel))
	for _, l := range byLevel {
		plan = append(plan, l)
	}
	slices.SortFunc(plan, func(a, b BloomLevel) int { return a.Level - b.Level })
	if len(plan) > MaxBloomLevels {
		plan = plan[:MaxBloomLevels]
	}
	return plan
}

// bloomPasses returns the downsample chain for the accumulation target followed by a horizontal
// and vertical blur per planned level. Each level reads and writes only its own mip so levels do
// not depend on each other.
func (r *renderer) bloomPasses(plan []BloomLevel) []Pass {
	ts := &r.targets
	var passes []Pass

	top := 0
	for _, l := range plan {
		top = max(top, l.Level)
	}
	for level := 1; level <= top; level++ {
		p := Pass{
			Kind:        PassDownsample,
			Label:       fmt.Sprintf("downsample_%d", level),
			Output:      ts.acc,
			OutputLevel: level,
			Clear:       true,
			Inputs:      []Attachment{{Target: ts.acc, Index: 0, Level: level - 1}},
		}
		p.Uniforms.Level = uint32(level - 1)
		p.Uniforms.TexelSize = texelSize(ts.acc, level-1)
		passes = append(passes, p)
	}

	for _, l := range plan {
		weights, radius := Kernel(l.Stdev, l.Level)

		h := Pass{
			Kind:        PassBlurHorizontal,
			Label:       fmt.Sprintf("blur_h_%d", l.Level),
			Output:      ts.temp1,
			OutputLevel: l.Level,
			Clear:       true,
			Inputs:      []Attachment{{Target: ts.acc, Index: 0, Level: l.Level}},
		}
		h.Uniforms.Level = uint32(l.Level)
		h.Uniforms.Radius = uint32(radius)
		h.Uniforms.Weights = weights
		h.Uniforms.Direction = 0
		h.Uniforms.TexelSize = texelSize(ts.acc, l.Level)

		v := h
		v.Kind = PassBlurVertical
		v.Label = fmt.Sprintf("blur_v_%d", l.Level)
		v.Output = ts.temp2
		v.Inputs = []Attachment{{Target: ts.temp1, Index: 0, Level: l.Level}}
		v.Uniforms.Direction = 1

		passes = append(passes, h, v)
	}
	return passes
}

// texelSize returns the reciprocal size of a mip level of t.
func texelSize(t Target, level int) [2]float32 {
	w := max(t.Width()>>level, 1)
	h := max(t.Height()>>level, 1)
	return [2]float32{1 / float32(w), 1 / float32(h)}
}
