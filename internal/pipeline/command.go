package pipeline

import (
	"fmt"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/filter"
)

// Op identifies a queued command.
type Op int

const (
	// OpLoad reads Command.Path from disk and makes it the master image.
	OpLoad Op = iota
	// OpLoadBitmap makes Command.Bitmap the master image.
	OpLoadBitmap
	// OpFilter applies Command.Filter to the master image.
	OpFilter
	// OpReprocess re-traces the master image with the current parameters.
	OpReprocess
	// OpToggleBinary switches the display between the master image and its
	// binarized copy.
	OpToggleBinary
	// OpBarrier signals its caller once every earlier command has run.
	OpBarrier
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpLoadBitmap:
		return "load-bitmap"
	case OpFilter:
		return "filter"
	case OpReprocess:
		return "reprocess"
	case OpToggleBinary:
		return "toggle-binary"
	case OpBarrier:
		return "barrier"
	default:
		return "unknown"
	}
}

// Command is one unit of queued work. Only the field matching Op is set.
type Command struct {
	Op     Op
	Path   string
	Bitmap *bitmap.Bitmap
	Filter filter.Kind

	reached chan error // OpBarrier only
}

func (c Command) String() string {
	switch c.Op {
	case OpLoad:
		return fmt.Sprintf("load %s", c.Path)
	case OpFilter:
		return fmt.Sprintf("filter %s", c.Filter)
	default:
		return c.Op.String()
	}
}

// mutates reports whether running c can change the published frame.
func (c Command) mutates() bool { return c.Op != OpBarrier }

// CommandError reports a command that failed on the worker.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
