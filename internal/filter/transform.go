package filter

import (
	"contour-tracer/internal/bitmap"
)

// resized returns an empty copy of b with new dimensions and the same
// storage order.
func resized(b *bitmap.Bitmap, width, height int) (*bitmap.Bitmap, error) {
	out := b.CloneEmpty()
	if b.TopDown() {
		height = -height
	}
	if err := out.SetDimension(width, height); err != nil {
		return nil, err
	}
	return out, nil
}

// remap fills a width x height destination where pixel (i, j) comes from
// src(i, j) of the source, then swaps it into b.
func remap(b *bitmap.Bitmap, width, height int, src func(i, j int) (int, int)) error {
	out, err := resized(b, width, height)
	if err != nil {
		return err
	}
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			x, y := src(i, j)
			out.CopyPixel(i, j, b, x, y)
		}
	}
	b.Replace(out)
	return nil
}

// Rotate90 turns the image a quarter turn counter-clockwise.
func Rotate90(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, h, w, func(i, j int) (int, int) {
		return w - 1 - j, i
	})
}

// Rotate180 turns the image half a turn.
func Rotate180(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, w, h, func(i, j int) (int, int) {
		return w - 1 - i, h - 1 - j
	})
}

// Rotate270 turns the image a quarter turn clockwise.
func Rotate270(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, h, w, func(i, j int) (int, int) {
		return j, h - 1 - i
	})
}

// FlipV mirrors the image across its vertical center line.
func FlipV(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, w, h, func(i, j int) (int, int) {
		return w - 1 - i, j
	})
}

// FlipH mirrors the image across its horizontal center line by reversing
// the storage order. No pixel data moves.
func FlipH(b *bitmap.Bitmap) error {
	b.FlipStorageOrder()
	return nil
}

// FlipD1 transposes the image across the main diagonal.
func FlipD1(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, h, w, func(i, j int) (int, int) {
		return j, i
	})
}

// FlipD2 transposes the image across the anti-diagonal.
func FlipD2(b *bitmap.Bitmap) error {
	w, h := b.Width(), b.Height()
	return remap(b, h, w, func(i, j int) (int, int) {
		return w - 1 - j, h - 1 - i
	})
}

// Grow doubles both dimensions, turning each pixel into a 2x2 block.
func Grow(b *bitmap.Bitmap) error {
	return remap(b, b.Width()*2, b.Height()*2, func(i, j int) (int, int) {
		return i / 2, j / 2
	})
}

// Shrink halves both dimensions, keeping every second pixel of every
// second row. Images narrower or shorter than two pixels are rejected.
func Shrink(b *bitmap.Bitmap) error {
	w, h := b.Width()/2, b.Height()/2
	if w == 0 || h == 0 {
		return &bitmap.DimensionError{Width: w, Height: h}
	}
	return remap(b, w, h, func(i, j int) (int, int) {
		return i * 2, j * 2
	})
}
