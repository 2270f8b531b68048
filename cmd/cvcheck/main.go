//go:build gocv

// Command cvcheck traces a BMP file and compares the contours with the ones
// OpenCV finds in the same binarized image.
package main

import (
	"flag"
	"fmt"
	"os"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/cvbridge"
)

func main() {
	imagePath := flag.String("image", "", "Path to BMP image (.bmp or .bmp.zst)")
	iso := flag.Int("iso", contour.DefaultIsovalue, "Isovalue")
	step := flag.Int("step", contour.DefaultStep, "Cell size in pixels")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: cvcheck -image <path> [-iso 57] [-step 5]")
		os.Exit(1)
	}

	b, err := bitmap.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %dx%d %d-bit image\n", b.Width(), b.Height(), b.Depth())

	params := contour.DefaultParams()
	params.Isovalue = *iso
	params.Step = *step
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %v\n", err)
		os.Exit(1)
	}

	cmp, err := cvbridge.Compare(b, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(cmp)
	if !cmp.Within(float64(params.Step)) {
		fmt.Println("MISMATCH")
		os.Exit(2)
	}
	fmt.Println("OK")
}
