package profiler

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
)

// Stage names a timed section of the frame.
type Stage int

const (
	// StageFlock is the bird integration step.
	StageFlock Stage = iota
	// StageOcean is ocean evolution, inverse transform, normalization and upload.
	StageOcean
	// StageRender is pass building and encoding up to present.
	StageRender

	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageFlock:
		return "flock"
	case StageOcean:
		return "ocean"
	case StageRender:
		return "render"
	}
	return fmt.Sprintf("stage_%d", int(s))
}

// Row is one reporting interval as written to the CSV sink.
type Row struct {
	Elapsed     float64 `csv:"elapsed_s"`
	Frames      int     `csv:"frames"`
	FPS         float64 `csv:"fps"`
	FlockMs     float64 `csv:"flock_ms"`
	OceanMs     float64 `csv:"ocean_ms"`
	RenderMs    float64 `csv:"render_ms"`
	HeapMB      float64 `csv:"heap_mb"`
	AllocRateMB float64 `csv:"alloc_rate_mb_s"`
	GCCount     uint32  `csv:"gc_count"`
	MaxPauseUs  uint64  `csv:"gc_max_pause_us"`
	SysMB       float64 `csv:"sys_mb"`
}

// Profiler tracks frame rate, per-stage time and memory statistics.
// Every update interval it logs one line and, if a sink is set, appends one CSV row.
// Thread-safe for concurrent access.
type Profiler struct {
	mu     sync.Mutex
	logger zerolog.Logger
	now    func() time.Time

	sink          io.Writer
	headerWritten bool

	frameCount     int
	started        time.Time
	lastTime       time.Time
	updateInterval time.Duration
	stages         [stageCount]time.Duration

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         zerolog.Nop(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.started = p.now()
	p.lastTime = p.started
	return p
}

// Time starts timing a stage and returns the function that stops it. Time spent in a stage is
// summed over the interval and reported as a per-frame average.
//
//	defer p.Time(profiler.StageRender)()
//
// Parameters:
//   - s: the stage
//
// Returns:
//   - func(): stops the measurement
func (p *Profiler) Time(s Stage) func() {
	start := p.now()
	return func() {
		d := p.now().Sub(start)
		p.mu.Lock()
		p.stages[s] += d
		p.mu.Unlock()
	}
}

// Tick should be called once per frame.
//
// Returns:
//   - bool: true if stats were reported this tick
//   - error: error if the CSV row could not be written
func (p *Profiler) Tick() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false, nil
	}

	row := p.sample(currentTime, elapsed)
	p.logger.Info().
		Float64("fps", row.FPS).
		Float64("flock_ms", row.FlockMs).
		Float64("ocean_ms", row.OceanMs).
		Float64("render_ms", row.RenderMs).
		Float64("heap_mb", row.HeapMB).
		Float64("alloc_rate_mb_s", row.AllocRateMB).
		Uint32("gc", row.GCCount).
		Uint64("gc_max_pause_us", row.MaxPauseUs).
		Float64("sys_mb", row.SysMB).
		Msg("profiler")

	p.frameCount = 0
	p.lastTime = currentTime
	p.stages = [stageCount]time.Duration{}

	if p.sink == nil {
		return true, nil
	}
	if err := p.writeRow(row); err != nil {
		return true, fmt.Errorf("write profiler row: %w", err)
	}
	return true, nil
}

func (p *Profiler) sample(now time.Time, elapsed time.Duration) Row {
	runtime.ReadMemStats(&p.memStats)

	row := Row{
		Elapsed: now.Sub(p.started).Seconds(),
		Frames:  p.frameCount,
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	perFrame := func(s Stage) float64 {
		return float64(p.stages[s].Microseconds()) / 1000 / float64(p.frameCount)
	}
	row.FlockMs = perFrame(StageFlock)
	row.OceanMs = perFrame(StageOcean)
	row.RenderMs = perFrame(StageRender)

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	row.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	gcCount := p.memStats.NumGC
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > row.MaxPauseUs {
			row.MaxPauseUs = pause
		}
	}

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return row
}

func (p *Profiler) writeRow(row Row) error {
	records := []Row{row}
	if !p.headerWritten {
		if err := gocsv.Marshal(records, p.sink); err != nil {
			return err
		}
		p.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, p.sink)
}
