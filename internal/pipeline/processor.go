// Package pipeline runs image commands on a single background worker. The
// worker owns the master bitmap; callers only enqueue commands and swap
// parameter snapshots, then observe results through events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/filter"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("pipeline closed")
	// ErrNoImage is reported by commands that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
)

// State is the worker lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PublishMode selects when a new display frame is produced.
type PublishMode int

const (
	// PublishBatch traces once each time the queue runs empty.
	PublishBatch PublishMode = iota
	// PublishCommand traces after every command.
	PublishCommand
)

func (m PublishMode) String() string {
	if m == PublishCommand {
		return "command"
	}
	return "batch"
}

// ParsePublishMode maps a configuration name to a PublishMode.
func ParsePublishMode(name string) (PublishMode, error) {
	switch name {
	case "batch", "":
		return PublishBatch, nil
	case "command":
		return PublishCommand, nil
	}
	return PublishBatch, fmt.Errorf("unknown publish mode %q", name)
}

// Options configures a Processor.
type Options struct {
	Params  contour.Params
	Style   contour.Style
	Publish PublishMode

	// LegacyBMP retries files the native codec rejects through the
	// generic BMP importer.
	LegacyBMP bool

	Logger *zap.Logger
}

// Processor is the command queue plus its worker goroutine.
type Processor struct {
	log     *zap.Logger
	style   contour.Style
	publish PublishMode
	legacy  bool

	params atomic.Pointer[contour.Params]

	// Queue state, guarded by qmu.
	qmu   sync.Mutex
	cond  *sync.Cond
	queue []Command
	state State
	abort bool

	// Image state, guarded by imu. Only the worker writes it.
	imu        sync.Mutex
	master     *bitmap.Bitmap
	showBinary bool
	result     *contour.Result
	frame      []byte
	frames     uint64
	lastErr    error

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener

	done chan struct{}
}

// New validates opts and starts the worker.
func New(opts Options) (*Processor, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.Style.Thickness < 1 {
		opts.Style.Thickness = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	p := &Processor{
		log:       log,
		style:     opts.Style,
		publish:   opts.Publish,
		legacy:    opts.LegacyBMP,
		listeners: make(map[EventType][]EventListener),
		done:      make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.qmu)
	params := opts.Params
	p.params.Store(&params)

	go p.run()
	log.Info("pipeline started",
		zap.Stringer("publish", p.publish),
		zap.Stringer("style", p.style))
	return p, nil
}

// Close stops the worker after the command in flight and waits for it to
// exit. Queued commands are dropped and pending Sync calls fail with
// ErrClosed. Close is safe to call more than once.
func (p *Processor) Close() {
	p.qmu.Lock()
	p.abort = true
	p.cond.Broadcast()
	p.qmu.Unlock()
	<-p.done
}

// Load queues reading a BMP file as the new master image.
func (p *Processor) Load(path string) error {
	return p.enqueue(Command{Op: OpLoad, Path: path})
}

// LoadBitmap queues b as the new master image. The processor takes
// ownership of b.
func (p *Processor) LoadBitmap(b *bitmap.Bitmap) error {
	if b == nil {
		return ErrNoImage
	}
	return p.enqueue(Command{Op: OpLoadBitmap, Bitmap: b})
}

// ApplyFilter queues filter k on the master image. Binarize uses the
// isovalue current when it runs.
func (p *Processor) ApplyFilter(k filter.Kind) error {
	return p.enqueue(Command{Op: OpFilter, Filter: k})
}

// ToggleBinary queues switching the display between the master image and
// its binarized copy.
func (p *Processor) ToggleBinary() error {
	return p.enqueue(Command{Op: OpToggleBinary})
}

// Reprocess queues a re-trace with the current parameters.
func (p *Processor) Reprocess() error {
	return p.enqueue(Command{Op: OpReprocess})
}

// Params returns the current parameter snapshot.
func (p *Processor) Params() contour.Params {
	return *p.params.Load()
}

// SetParams swaps in a whole new snapshot and queues a reprocess.
func (p *Processor) SetParams(params contour.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	p.params.Store(&params)
	return p.Reprocess()
}

// update applies fn to a copy of the current snapshot and swaps it in.
func (p *Processor) update(fn func(*contour.Params)) error {
	for {
		old := p.params.Load()
		next := *old
		fn(&next)
		if err := next.Validate(); err != nil {
			return err
		}
		if p.params.CompareAndSwap(old, &next) {
			return p.Reprocess()
		}
	}
}

// SetIsovalue changes the isovalue and queues a reprocess.
func (p *Processor) SetIsovalue(v int) error {
	return p.update(func(params *contour.Params) { params.Isovalue = v })
}

// SetStepSize changes the cell size and queues a reprocess.
func (p *Processor) SetStepSize(v int) error {
	return p.update(func(params *contour.Params) { params.Step = v })
}

// SetInterpolationMode selects binary or grayscale interpolation and queues
// a reprocess.
func (p *Processor) SetInterpolationMode(binary bool) error {
	return p.update(func(params *contour.Params) { params.BinaryInterpolation = binary })
}

// Sync blocks until every command queued before the call has run.
func (p *Processor) Sync(ctx context.Context) error {
	reached := make(chan error, 1)
	if err := p.enqueue(Command{Op: OpBarrier, reached: reached}); err != nil {
		return err
	}
	select {
	case err := <-reached:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the worker state.
func (p *Processor) State() State {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return p.state
}

// QueueDepth returns the number of commands waiting to run.
func (p *Processor) QueueDepth() int {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return len(p.queue)
}

// Snapshot returns a copy of the master image, or nil before any load.
func (p *Processor) Snapshot() *bitmap.Bitmap {
	p.imu.Lock()
	defer p.imu.Unlock()
	if p.master == nil {
		return nil
	}
	return p.master.Clone()
}

// Serialize encodes the master image as a BMP file.
func (p *Processor) Serialize() ([]byte, error) {
	p.imu.Lock()
	defer p.imu.Unlock()
	if p.master == nil {
		return nil, ErrNoImage
	}
	return p.master.MarshalBinary()
}

// Frame returns the last published display bitmap.
func (p *Processor) Frame() ([]byte, bool) {
	p.imu.Lock()
	defer p.imu.Unlock()
	return p.frame, p.frame != nil
}

// Result returns the trace behind the last published frame.
func (p *Processor) Result() *contour.Result {
	p.imu.Lock()
	defer p.imu.Unlock()
	return p.result
}

// Frames returns how many frames have been published.
func (p *Processor) Frames() uint64 {
	p.imu.Lock()
	defer p.imu.Unlock()
	return p.frames
}

// LastError returns the most recent command failure, if any.
func (p *Processor) LastError() error {
	p.imu.Lock()
	defer p.imu.Unlock()
	return p.lastErr
}

func (p *Processor) enqueue(cmd Command) error {
	p.qmu.Lock()
	if p.abort {
		p.qmu.Unlock()
		return ErrClosed
	}
	// A reprocess reads the parameters when it runs, so one already waiting
	// at the tail covers this request too.
	if cmd.Op == OpReprocess && len(p.queue) > 0 && p.queue[len(p.queue)-1].Op == OpReprocess {
		p.qmu.Unlock()
		return nil
	}
	p.queue = append(p.queue, cmd)
	depth := len(p.queue)
	p.cond.Signal()
	p.qmu.Unlock()

	p.emit(EventQueueDepth, depth)
	return nil
}

// next blocks until a command is available. ok is false once the
// processor is closing.
func (p *Processor) next() (cmd Command, remaining int, ok bool) {
	p.qmu.Lock()
	defer p.qmu.Unlock()

	for len(p.queue) == 0 && !p.abort {
		p.state = StateIdle
		p.cond.Wait()
	}
	if p.abort {
		p.state = StateStopped
		for _, c := range p.queue {
			if c.reached != nil {
				c.reached <- ErrClosed
			}
		}
		p.queue = nil
		return Command{}, 0, false
	}

	cmd = p.queue[0]
	p.queue[0] = Command{}
	p.queue = p.queue[1:]
	p.state = StateDraining
	return cmd, len(p.queue), true
}

func (p *Processor) run() {
	defer close(p.done)
	defer p.log.Info("pipeline stopped")

	dirty := false
	for {
		cmd, remaining, ok := p.next()
		if !ok {
			return
		}
		p.emit(EventQueueDepth, remaining)

		if cmd.mutates() {
			p.log.Debug("running command", zap.Stringer("op", cmd.Op), zap.String("command", cmd.String()), zap.Int("depth", remaining))
			p.execute(cmd)
			dirty = true
		}
		if dirty && (p.publish == PublishCommand || remaining == 0) {
			p.guard("publish", p.render)
			dirty = false
		}
		if cmd.reached != nil {
			cmd.reached <- nil
		}
	}
}

func (p *Processor) execute(cmd Command) {
	loaded := p.guard(cmd.String(), func() error { return p.apply(cmd) })
	if !loaded {
		return
	}
	switch cmd.Op {
	case OpLoad:
		p.emit(EventLoaded, cmd.Path)
	case OpLoadBitmap:
		p.emit(EventLoaded, "bitmap")
	}
}

// guard runs fn, turning errors and panics into an EventFailed. It reports
// whether fn succeeded.
func (p *Processor) guard(name string, fn func() error) (ok bool) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, isErr := r.(error); isErr {
					err = fmt.Errorf("panic: %w", e)
				} else {
					err = fmt.Errorf("panic: %v", r)
				}
			}
		}()
		err = fn()
	}()
	if err == nil {
		return true
	}

	cmdErr := &CommandError{Command: name, Err: err}
	p.log.Error("command failed", zap.String("command", name), zap.Error(err))
	p.imu.Lock()
	p.lastErr = cmdErr
	p.imu.Unlock()
	p.emit(EventFailed, cmdErr)
	return false
}

// apply runs one command against the master image.
func (p *Processor) apply(cmd Command) error {
	switch cmd.Op {
	case OpLoad:
		b, err := p.loadFile(cmd.Path)
		if err != nil {
			return err
		}
		p.setMaster(b)
		return nil
	case OpLoadBitmap:
		p.setMaster(cmd.Bitmap)
		return nil
	}

	p.imu.Lock()
	defer p.imu.Unlock()
	if p.master == nil {
		return ErrNoImage
	}

	switch cmd.Op {
	case OpFilter:
		return filter.Apply(cmd.Filter, p.master, p.Params().Isovalue)
	case OpToggleBinary:
		p.showBinary = !p.showBinary
		return nil
	case OpReprocess:
		return nil
	default:
		return fmt.Errorf("unknown op %d", int(cmd.Op))
	}
}

func (p *Processor) setMaster(b *bitmap.Bitmap) {
	p.imu.Lock()
	p.master = b
	p.imu.Unlock()
}

func (p *Processor) loadFile(path string) (*bitmap.Bitmap, error) {
	b, err := bitmap.Load(path)
	if err == nil || !p.legacy {
		return b, err
	}
	var fErr *bitmap.FormatError
	if !errors.As(err, &fErr) {
		return nil, err
	}

	f, oerr := os.Open(path)
	if oerr != nil {
		return nil, oerr
	}
	defer f.Close()
	p.log.Debug("retrying with generic importer", zap.String("path", path), zap.Error(err))
	return bitmap.Import(f)
}

// render traces the master image with the current snapshot, draws the
// overlay onto the display copy and publishes the encoded result.
func (p *Processor) render() error {
	res, data, err := p.trace(p.Params())
	if err != nil || data == nil {
		return err
	}

	p.log.Debug("frame published",
		zap.Int("contours", len(res.Contours)),
		zap.Int("broken", res.Broken),
		zap.Int("bytes", len(data)))
	p.emit(EventProcessed, data)
	return nil
}

func (p *Processor) trace(params contour.Params) (*contour.Result, []byte, error) {
	p.imu.Lock()
	defer p.imu.Unlock()
	if p.master == nil {
		return nil, nil, nil
	}

	res, err := contour.Trace(p.master, params)
	if err != nil {
		return nil, nil, err
	}
	display := p.master.Clone()
	if p.showBinary {
		display = res.Binary.Clone()
	}
	contour.Draw(display, res, p.style)
	data, err := display.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	p.result = res
	p.frame = data
	p.frames++
	return res, data, nil
}
