package filter

import (
	"fmt"

	"contour-tracer/internal/bitmap"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Luminance weights.
const (
	lumR = 0.216
	lumG = 0.7152
	lumB = 0.0722
)

// BlockSize is the edge length of a pixelate block.
const BlockSize = 16

// blurKernel is the 5x5 weight matrix of BlurImage. The weights sum to 276,
// so results are shifted down by 8 and clamped.
var blurKernel = mat.NewDense(5, 5, []float64{
	1, 4, 6, 4, 1,
	4, 16, 24, 26, 4,
	6, 24, 36, 24, 6,
	4, 16, 24, 26, 4,
	1, 4, 6, 4, 1,
})

var rgb = [3]bitmap.Channel{bitmap.Red, bitmap.Green, bitmap.Blue}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return byte(v)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// gray returns the luminance of a pixel truncated to 8 bits. Already gray
// pixels keep their value.
func gray(r, g, b byte) byte {
	if r == g && g == b {
		return r
	}
	return clampByte(int(lumR*float64(r) + lumG*float64(g) + lumB*float64(b)))
}

// celBand quantizes one channel into three bands.
func celBand(v byte) byte {
	switch {
	case v < 0x40:
		return 0x00
	case v < 0xC0:
		return 0x80
	default:
		return 0xFF
	}
}

// mapPixels runs fn over every pixel of a scratch copy and swaps it in.
func mapPixels(b *bitmap.Bitmap, fn func(r, g, bl byte) (byte, byte, byte)) {
	out := b.Clone()
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			r, g, bl := fn(out.RGB(x, y))
			out.SetRGB(x, y, r, g, bl)
		}
	}
	b.Replace(out)
}

// GrayscaleImage writes the luminance of each pixel into its three color
// channels.
func GrayscaleImage(b *bitmap.Bitmap) error {
	mapPixels(b, func(r, g, bl byte) (byte, byte, byte) {
		y := gray(r, g, bl)
		return y, y, y
	})
	return nil
}

// CelShadeImage clips every color channel into 0x00, 0x80 or 0xFF.
func CelShadeImage(b *bitmap.Bitmap) error {
	mapPixels(b, func(r, g, bl byte) (byte, byte, byte) {
		return celBand(r), celBand(g), celBand(bl)
	})
	return nil
}

// BinarizeImage converts b to grayscale and thresholds each color channel:
// values above iso become 0xFF, the rest 0x00.
func BinarizeImage(b *bitmap.Bitmap, iso int) error {
	if iso < 0 || iso > 0xFF {
		return fmt.Errorf("isovalue %d outside [0, 255]", iso)
	}
	threshold := func(v byte) byte {
		if int(v) > iso {
			return 0xFF
		}
		return 0x00
	}
	mapPixels(b, func(r, g, bl byte) (byte, byte, byte) {
		y := gray(r, g, bl)
		return threshold(y), threshold(y), threshold(y)
	})
	return nil
}

// hadamard multiplies a and b element by element into dst.
func hadamard(dst, a, b *mat.Dense) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%w: %dx%d and %dx%d", bitmap.ErrSizeMismatch, ar, ac, br, bc)
	}
	dst.MulElem(a, b)
	return nil
}

// BlurImage applies the 5x5 Gaussian kernel. Neighbors past the image edge
// are clamped to the nearest edge pixel.
func BlurImage(b *bitmap.Bitmap) error {
	out := b.Clone()
	w, h := b.Width(), b.Height()

	var window, weighted [3]*mat.Dense
	for c := range window {
		window[c] = mat.NewDense(5, 5, nil)
		weighted[c] = mat.NewDense(5, 5, nil)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := 0; k < 25; k++ {
				sx := clampIndex(x+2-k/5, w)
				sy := clampIndex(y+k%5-2, h)
				for c, ch := range rgb {
					window[c].Set(k/5, k%5, float64(b.At(sx, sy, ch)))
				}
			}
			for c, ch := range rgb {
				if err := hadamard(weighted[c], blurKernel, window[c]); err != nil {
					return err
				}
				out.Set(x, y, ch, clampByte(int(mat.Sum(weighted[c]))>>8))
			}
		}
	}

	b.Replace(out)
	return nil
}

// PixelateImage replaces every BlockSize square with its mean color. Blocks
// cut by the right or bottom edge average only the pixels they cover.
func PixelateImage(b *bitmap.Bitmap) error {
	out := b.Clone()
	w, h := b.Width(), b.Height()
	samples := make([][]float64, len(rgb))

	for by := 0; by < h; by += BlockSize {
		for bx := 0; bx < w; bx += BlockSize {
			x1, y1 := min(bx+BlockSize, w), min(by+BlockSize, h)

			for c := range samples {
				samples[c] = samples[c][:0]
			}
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					for c, ch := range rgb {
						samples[c] = append(samples[c], float64(b.At(x, y, ch)))
					}
				}
			}

			var mean [3]byte
			for c := range samples {
				mean[c] = clampByte(int(stat.Mean(samples[c], nil)))
			}
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					out.SetRGB(x, y, mean[0], mean[1], mean[2])
				}
			}
		}
	}

	b.Replace(out)
	return nil
}
