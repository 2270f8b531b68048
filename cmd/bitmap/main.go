// Command bitmap applies one filter to a BMP file.
//
//	bitmap option inputfile.bmp outputfile.bmp
//
// Files ending in .zst are read and written zstd-compressed.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/filter"
	"contour-tracer/internal/version"
)

const contourFlag = "-contour"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage() string {
	var sb strings.Builder
	sb.WriteString("usage:\n")
	sb.WriteString("bitmap option inputfile.bmp outputfile.bmp\n")
	sb.WriteString("options:\n")
	for _, k := range filter.Kinds() {
		fmt.Fprintf(&sb, "  %s %s\n", k.Flag(), k.Usage())
	}
	fmt.Fprintf(&sb, "  %s trace contours and draw them with their hulls\n", contourFlag)
	return sb.String()
}

// run returns the process exit code. Bad invocations and processing
// failures are reported on stdout and still exit 0.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 1 && args[0] == "-version" {
		fmt.Fprintf(stdout, "bitmap %s\n", version.String())
		return 0
	}
	if len(args) != 3 {
		fmt.Fprint(stdout, usage())
		return 0
	}

	if err := safely(func() error { return processFile(args[0], args[1], args[2]) }); err != nil {
		fmt.Fprintln(stdout, "Error: an uncaught exception occured.")
		fmt.Fprintf(stderr, "bitmap: %v\n", err)
	}
	return 0
}

var processFile = process

// safely runs fn, turning a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func process(option, in, out string) error {
	var apply func(*bitmap.Bitmap) error
	if option == contourFlag {
		apply = traceOverlay
	} else {
		k, err := filter.ParseFlag(option)
		if err != nil {
			return err
		}
		apply = func(b *bitmap.Bitmap) error {
			return filter.Apply(k, b, contour.DefaultIsovalue)
		}
	}

	img, err := bitmap.Load(in)
	if err != nil {
		return err
	}
	if err := apply(img); err != nil {
		return err
	}
	return bitmap.Save(out, img)
}

func traceOverlay(b *bitmap.Bitmap) error {
	res, err := contour.Trace(b, contour.DefaultParams())
	if err != nil {
		return err
	}
	contour.Draw(b, res, contour.DefaultStyle())
	return nil
}
