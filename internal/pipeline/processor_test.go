package pipeline

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
	"go.uber.org/zap/zaptest"
)

func testImage(t *testing.T) *bitmap.Bitmap {
	t.Helper()
	b, err := bitmap.New(40, 30, 24)
	require.NoError(t, err)
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if x >= 10 && x < 30 && y >= 5 && y < 25 {
				b.SetRGB(x, y, 200, byte(150+x), byte(100+y))
			} else {
				b.SetRGB(x, y, byte(x), 10, byte(y))
			}
		}
	}
	return b
}

func newProcessor(t *testing.T, mode PublishMode) *Processor {
	t.Helper()
	p, err := New(Options{
		Params:  contour.DefaultParams(),
		Style:   contour.DefaultStyle(),
		Publish: mode,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func syncNow(t *testing.T, p *Processor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Sync(ctx))
}

// recorder collects event payloads by type.
type recorder struct {
	mu     sync.Mutex
	events map[EventType][]interface{}
}

func record(p *Processor, types ...EventType) *recorder {
	r := &recorder{events: make(map[EventType][]interface{})}
	for _, et := range types {
		et := et
		p.On(et, func(data interface{}) {
			r.mu.Lock()
			r.events[et] = append(r.events[et], data)
			r.mu.Unlock()
		})
	}
	return r
}

func (r *recorder) get(et EventType) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.events[et]...)
}

func TestQueuedMatchesDirect(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	start := testImage(t)

	require.NoError(t, p.LoadBitmap(start.Clone()))
	require.NoError(t, p.ApplyFilter(filter.Grayscale))
	require.NoError(t, p.ApplyFilter(filter.CelShade))
	require.NoError(t, p.Reprocess())
	syncNow(t, p)

	direct := start.Clone()
	require.NoError(t, filter.GrayscaleImage(direct))
	require.NoError(t, filter.CelShadeImage(direct))

	assert.True(t, direct.Equal(p.Snapshot()))
	assert.Zero(t, p.QueueDepth())
	assert.NoError(t, p.LastError())

	data, err := p.Serialize()
	require.NoError(t, err)
	want, err := direct.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestPublishesFrames(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	rec := record(p, EventProcessed, EventLoaded)

	_, ok := p.Frame()
	assert.False(t, ok)

	require.NoError(t, p.LoadBitmap(testImage(t)))
	syncNow(t, p)

	frame, ok := p.Frame()
	require.True(t, ok)
	assert.GreaterOrEqual(t, p.Frames(), uint64(1))

	var decoded bitmap.Bitmap
	require.NoError(t, decoded.UnmarshalBinary(frame))
	assert.Equal(t, 40, decoded.Width())

	processed := rec.get(EventProcessed)
	require.NotEmpty(t, processed)
	assert.Equal(t, frame, processed[len(processed)-1])
	assert.Equal(t, []interface{}{"bitmap"}, rec.get(EventLoaded))

	res := p.Result()
	require.NotNil(t, res)
	require.Len(t, res.Contours, 1)
	assert.True(t, res.Contours[0].Closed)
}

func TestPublishPerCommand(t *testing.T) {
	p := newProcessor(t, PublishCommand)

	require.NoError(t, p.LoadBitmap(testImage(t)))
	require.NoError(t, p.ApplyFilter(filter.Grayscale))
	require.NoError(t, p.ApplyFilter(filter.Rot90))
	syncNow(t, p)

	assert.Equal(t, uint64(3), p.Frames())
}

func TestBarrierAloneDoesNotPublish(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	require.NoError(t, p.LoadBitmap(testImage(t)))
	syncNow(t, p)
	frames := p.Frames()

	syncNow(t, p)
	assert.Equal(t, frames, p.Frames())
}

func TestToggleBinary(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	require.NoError(t, p.LoadBitmap(testImage(t)))
	syncNow(t, p)
	plain, _ := p.Frame()

	require.NoError(t, p.ToggleBinary())
	syncNow(t, p)
	binary, _ := p.Frame()
	assert.NotEqual(t, plain, binary)

	var b bitmap.Bitmap
	require.NoError(t, b.UnmarshalBinary(binary))
	// Away from the overlay every pixel is black or white.
	r, g, bl := b.RGB(1, 1)
	assert.Equal(t, [3]byte{0, 0, 0}, [3]byte{r, g, bl})
}

func TestFailuresAreReported(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	rec := record(p, EventFailed)

	require.NoError(t, p.ApplyFilter(filter.Blur))
	require.NoError(t, p.Load(filepath.Join(t.TempDir(), "missing.bmp")))
	syncNow(t, p)

	failed := rec.get(EventFailed)
	require.Len(t, failed, 2)
	first, ok := failed[0].(*CommandError)
	require.True(t, ok)
	assert.ErrorIs(t, first, ErrNoImage)
	assert.Equal(t, "filter blur", first.Command)
	assert.Error(t, p.LastError())

	// The worker keeps going after failures.
	require.NoError(t, p.LoadBitmap(testImage(t)))
	syncNow(t, p)
	assert.NotNil(t, p.Snapshot())
}

func TestGuardRecoversPanics(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	rec := record(p, EventFailed)

	ok := p.guard("explode", func() error { panic("boom") })
	assert.False(t, ok)

	failed := rec.get(EventFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].(error).Error(), "boom")
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.bmp.zst")
	require.NoError(t, bitmap.Save(path, testImage(t)))

	p := newProcessor(t, PublishBatch)
	rec := record(p, EventLoaded)
	require.NoError(t, p.Load(path))
	syncNow(t, p)

	assert.True(t, testImage(t).Equal(p.Snapshot()))
	assert.Equal(t, []interface{}{path}, rec.get(EventLoaded))
}

func writePaletted(t *testing.T, path string) {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	img.SetColorIndex(2, 3, 1)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, xbmp.Encode(f, img))
}

func TestLegacyImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paletted.bmp")
	writePaletted(t, path)

	strict := newProcessor(t, PublishBatch)
	rec := record(strict, EventFailed)
	require.NoError(t, strict.Load(path))
	syncNow(t, strict)
	require.Len(t, rec.get(EventFailed), 1)
	assert.ErrorIs(t, strict.LastError(), bitmap.ErrUnsupportedDepth)

	lenient, err := New(Options{Params: contour.DefaultParams(), LegacyBMP: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer lenient.Close()
	require.NoError(t, lenient.Load(path))
	syncNow(t, lenient)

	snap := lenient.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 24, snap.Depth())
	r, _, _ := snap.RGB(2, 3)
	assert.Equal(t, byte(255), r)
}

func TestParamSetters(t *testing.T) {
	p := newProcessor(t, PublishBatch)

	require.NoError(t, p.SetIsovalue(100))
	require.NoError(t, p.SetStepSize(3))
	require.NoError(t, p.SetInterpolationMode(false))
	got := p.Params()
	assert.Equal(t, 100, got.Isovalue)
	assert.Equal(t, 3, got.Step)
	assert.False(t, got.BinaryInterpolation)

	assert.Error(t, p.SetIsovalue(300))
	assert.Error(t, p.SetStepSize(0))
	assert.Equal(t, got, p.Params())

	next := contour.DefaultParams()
	next.Isovalue = 10
	require.NoError(t, p.SetParams(next))
	assert.Equal(t, next, p.Params())
	assert.Error(t, p.SetParams(contour.Params{Step: -1}))
}

func TestReprocessCoalesces(t *testing.T) {
	// A processor without a worker keeps everything queued.
	p := &Processor{listeners: make(map[EventType][]EventListener)}
	p.cond = sync.NewCond(&p.qmu)

	require.NoError(t, p.Reprocess())
	require.NoError(t, p.Reprocess())
	require.NoError(t, p.Reprocess())
	assert.Equal(t, 1, p.QueueDepth())

	require.NoError(t, p.ApplyFilter(filter.Grayscale))
	require.NoError(t, p.Reprocess())
	require.NoError(t, p.Reprocess())
	assert.Equal(t, 3, p.QueueDepth())
}

func TestQueueDepthEvents(t *testing.T) {
	p := newProcessor(t, PublishBatch)
	rec := record(p, EventQueueDepth)

	require.NoError(t, p.LoadBitmap(testImage(t)))
	syncNow(t, p)

	depths := rec.get(EventQueueDepth)
	require.NotEmpty(t, depths)
	assert.Equal(t, 0, depths[len(depths)-1])
}

func TestClose(t *testing.T) {
	p, err := New(Options{Params: contour.DefaultParams()})
	require.NoError(t, err)

	p.Close()
	p.Close()
	assert.Equal(t, StateStopped, p.State())
	assert.ErrorIs(t, p.Load("x.bmp"), ErrClosed)
	assert.ErrorIs(t, p.Sync(context.Background()), ErrClosed)
}

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New(Options{Params: contour.Params{Isovalue: 57, Step: 0}})
	assert.Error(t, err)
}

func TestParsePublishMode(t *testing.T) {
	m, err := ParsePublishMode("command")
	require.NoError(t, err)
	assert.Equal(t, PublishCommand, m)
	m, err = ParsePublishMode("")
	require.NoError(t, err)
	assert.Equal(t, PublishBatch, m)
	_, err = ParsePublishMode("never")
	assert.Error(t, err)
}
