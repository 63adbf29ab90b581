package ocean

import (
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"gonum.org/v1/gonum/dsp/fourier"
)

// InverseTransform evaluates the 2D inverse DFT of a centered frequency grid and writes the
// real spatial field with the (-1)^(x+z) checkerboard applied.
type InverseTransform interface {
	// Size returns the grid resolution N.
	Size() int

	// Workers returns the number of row/column batches processed concurrently.
	Workers() int

	// Apply transforms in place (rows then columns) and writes the real part of each sample,
	// sign corrected, to out. The input grid is overwritten.
	//
	// Parameters:
	//   - grid: the N×N frequency grid, overwritten with the spatial result
	//   - out: destination for N² real samples
	//
	// Returns:
	//   - float64: the largest absolute imaginary residue over all samples
	Apply(grid Grid, out []float32) float64
}

// InverseTransformBuilderOption configures an InverseTransform.
type InverseTransformBuilderOption func(t *inverseTransformImpl)

// WithTransformWorkers sets how many row/column batches run concurrently. Values below 1 are
// treated as 1, which runs every batch inline on the caller's goroutine.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - InverseTransformBuilderOption: option function to apply
func WithTransformWorkers(n int) InverseTransformBuilderOption {
	return func(t *inverseTransformImpl) {
		t.workers = max(n, 1)
	}
}

type inverseTransformImpl struct {
	n       int
	workers int

	// one FFT plan and scratch pair per batch, a plan's work buffer is not safe for concurrent use
	ffts []*fourier.CmplxFFT
	src  [][]complex128
	dst  [][]complex128

	pool worker.DynamicWorkerPool
}

var _ InverseTransform = &inverseTransformImpl{}

// NewInverseTransform creates an InverseTransform for an N×N grid.
// Panics if n is not a power of two.
//
// Parameters:
//   - n: grid resolution
//   - options: functional options
//
// Returns:
//   - InverseTransform: the transform stage
func NewInverseTransform(n int, options ...InverseTransformBuilderOption) InverseTransform {
	if n < 2 || n&(n-1) != 0 {
		panic("ocean: NewInverseTransform requires a power of two size")
	}

	t := &inverseTransformImpl{
		n:       n,
		workers: 1,
	}
	for _, option := range options {
		option(t)
	}
	t.workers = min(t.workers, n)

	t.ffts = make([]*fourier.CmplxFFT, t.workers)
	t.src = make([][]complex128, t.workers)
	t.dst = make([][]complex128, t.workers)
	for b := range t.workers {
		t.ffts[b] = fourier.NewCmplxFFT(n)
		t.src[b] = make([]complex128, n)
		t.dst[b] = make([]complex128, n)
	}

	if t.workers > 1 {
		t.pool = worker.NewDynamicWorkerPool(t.workers, 256, 1*time.Second)
	}
	return t
}

func (t *inverseTransformImpl) Size() int    { return t.n }
func (t *inverseTransformImpl) Workers() int { return t.workers }

func (t *inverseTransformImpl) Apply(grid Grid, out []float32) float64 {
	n := t.n
	t.forEachBatch(func(b, lo, hi int) {
		fft, dst := t.ffts[b], t.dst[b]
		for z := lo; z < hi; z++ {
			row := grid[z*n : (z+1)*n]
			fft.Sequence(dst, row)
			copy(row, dst)
		}
	})
	t.forEachBatch(func(b, lo, hi int) {
		fft, src, dst := t.ffts[b], t.src[b], t.dst[b]
		for x := lo; x < hi; x++ {
			for z := 0; z < n; z++ {
				src[z] = grid[z*n+x]
			}
			fft.Sequence(dst, src)
			for z := 0; z < n; z++ {
				grid[z*n+x] = dst[z]
			}
		}
	})

	maxImag := 0.0
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			v := grid[z*n+x]
			if (x+z)&1 == 1 {
				v = -v
			}
			out[z*n+x] = float32(real(v))
			maxImag = math.Max(maxImag, math.Abs(imag(v)))
		}
	}
	return maxImag
}

// forEachBatch splits [0, n) into one contiguous range per worker and runs fn for each,
// returning once every range is done.
func (t *inverseTransformImpl) forEachBatch(fn func(b, lo, hi int)) {
	step := (t.n + t.workers - 1) / t.workers
	if t.workers == 1 {
		fn(0, 0, t.n)
		return
	}

	// per-stage barrier; pool.Wait blocks until idle workers exit
	var wg sync.WaitGroup
	for b := range t.workers {
		lo, hi := b*step, min((b+1)*step, t.n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		t.pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				fn(b, lo, hi)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
