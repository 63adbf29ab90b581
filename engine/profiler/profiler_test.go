package profiler

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProfiler_CSVRows(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var buf bytes.Buffer
	p := NewProfiler(WithCSV(&buf), WithClock(clock.now), WithInterval(time.Second))

	for frame := range 20 {
		stop := p.Time(StageOcean)
		clock.advance(10 * time.Millisecond)
		stop()
		stop = p.Time(StageRender)
		clock.advance(40 * time.Millisecond)
		stop()

		reported, err := p.Tick()
		require.NoError(t, err)
		assert.Equal(t, frame == 19, reported, "frame %d", frame)
	}

	for range 20 {
		clock.advance(50 * time.Millisecond)
		_, err := p.Tick()
		require.NoError(t, err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "elapsed_s,frames,fps,flock_ms,ocean_ms,render_ms"))

	var rows []Row
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, 20, rows[0].Frames)
	assert.InDelta(t, 20.0, rows[0].FPS, 1e-9)
	assert.InDelta(t, 10.0, rows[0].OceanMs, 1e-9)
	assert.InDelta(t, 40.0, rows[0].RenderMs, 1e-9)
	assert.Zero(t, rows[0].FlockMs)
	assert.InDelta(t, 1.0, rows[0].Elapsed, 1e-9)

	// Stage totals reset each interval.
	assert.Zero(t, rows[1].RenderMs)
	assert.InDelta(t, 2.0, rows[1].Elapsed, 1e-9)
}

func TestProfiler_NoSink(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now))

	reported, err := p.Tick()
	require.NoError(t, err)
	assert.False(t, reported)

	clock.advance(2 * time.Second)
	reported, err = p.Tick()
	require.NoError(t, err)
	assert.True(t, reported)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "ocean", StageOcean.String())
	assert.Equal(t, "stage_9", Stage(9).String())
}
