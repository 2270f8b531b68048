package filter

import (
	"testing"

	"contour-tracer/internal/bitmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newImage(t *testing.T, width, height, depth int) *bitmap.Bitmap {
	t.Helper()
	b, err := bitmap.New(width, height, depth)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.SetRGB(x, y, byte(x*31+y*7), byte(x*5+y*17), byte(x*y+11))
			if b.HasAlpha() {
				b.Set(x, y, bitmap.Alpha, byte(x+y*width))
			}
		}
	}
	return b
}

func fill(t *testing.T, width, height int, r, g, bl byte) *bitmap.Bitmap {
	t.Helper()
	b, err := bitmap.New(width, height, 24)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.SetRGB(x, y, r, g, bl)
		}
	}
	return b
}

func pixel(b *bitmap.Bitmap, x, y int) [3]byte {
	r, g, bl := b.RGB(x, y)
	return [3]byte{r, g, bl}
}

func TestParse(t *testing.T) {
	for _, k := range Kinds() {
		byFlag, err := ParseFlag(k.Flag())
		require.NoError(t, err)
		assert.Equal(t, k, byFlag)

		byName, err := ParseName(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, byName)

		text, err := k.MarshalText()
		require.NoError(t, err)
		var decoded Kind
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, k, decoded)
	}

	_, err := ParseFlag("-x")
	assert.Error(t, err)
	_, err = ParseName("sharpen")
	assert.Error(t, err)
	assert.Error(t, Apply(Kind(99), fill(t, 1, 1, 0, 0, 0), 0))
}

func TestGrayscale(t *testing.T) {
	b := fill(t, 2, 2, 100, 150, 200)
	require.NoError(t, GrayscaleImage(b))
	// 0.216*100 + 0.7152*150 + 0.0722*200 = 143.32
	assert.Equal(t, [3]byte{143, 143, 143}, pixel(b, 1, 1))

	white := fill(t, 1, 1, 255, 255, 255)
	require.NoError(t, GrayscaleImage(white))
	assert.Equal(t, [3]byte{255, 255, 255}, pixel(white, 0, 0))
}

func TestGrayscaleIdempotent(t *testing.T) {
	b := newImage(t, 9, 7, 24)
	require.NoError(t, GrayscaleImage(b))
	once := b.Clone()
	require.NoError(t, GrayscaleImage(b))
	assert.True(t, once.Equal(b))
}

func TestBinarizeIdempotent(t *testing.T) {
	for _, iso := range []int{0, 57, 128, 255} {
		b := newImage(t, 9, 7, 32)
		require.NoError(t, BinarizeImage(b, iso))
		once := b.Clone()
		require.NoError(t, BinarizeImage(b, iso))
		assert.True(t, once.Equal(b), "iso %d", iso)

		for y := 0; y < b.Height(); y++ {
			for x := 0; x < b.Width(); x++ {
				v := b.At(x, y, bitmap.Red)
				assert.Contains(t, []byte{0x00, 0xFF}, v)
			}
		}
	}

	assert.Error(t, BinarizeImage(fill(t, 1, 1, 0, 0, 0), 256))
}

func TestBinarizeThreshold(t *testing.T) {
	b := fill(t, 1, 1, 57, 57, 57)
	require.NoError(t, BinarizeImage(b, 57))
	assert.Equal(t, [3]byte{0, 0, 0}, pixel(b, 0, 0), "equal to the isovalue is background")

	b = fill(t, 1, 1, 58, 58, 58)
	require.NoError(t, BinarizeImage(b, 57))
	assert.Equal(t, [3]byte{255, 255, 255}, pixel(b, 0, 0))
}

func TestCelShade(t *testing.T) {
	b := fill(t, 1, 1, 0x3F, 0x40, 0xC0)
	require.NoError(t, CelShadeImage(b))
	assert.Equal(t, [3]byte{0x00, 0x80, 0xFF}, pixel(b, 0, 0))
}

func TestBlurUniform(t *testing.T) {
	b := fill(t, 6, 6, 100, 0, 255)
	require.NoError(t, BlurImage(b))
	// The kernel sums to 276: 100*276>>8 = 107, 255*276>>8 clamps to 255.
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			assert.Equal(t, [3]byte{107, 0, 255}, pixel(b, x, y))
		}
	}
}

func TestBlurSpreadsPoint(t *testing.T) {
	b := fill(t, 7, 7, 0, 0, 0)
	b.SetRGB(3, 3, 255, 255, 255)
	require.NoError(t, BlurImage(b))

	// 255*36>>8 at the center.
	assert.Equal(t, byte(35), b.At(3, 3, bitmap.Red))
	assert.Equal(t, byte(0), b.At(0, 0, bitmap.Red))
	assert.Greater(t, b.At(3, 2, bitmap.Red), byte(0))
}

func TestHadamardSizeMismatch(t *testing.T) {
	err := hadamard(mat.NewDense(5, 5, nil), blurKernel, mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, bitmap.ErrSizeMismatch)
}

func TestPixelate(t *testing.T) {
	b := fill(t, 20, 17, 0, 0, 0)
	// Left block: half the rows at 200, half at 100.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := byte(100)
			if y < 8 {
				v = 200
			}
			b.SetRGB(x, y, v, v, v)
		}
	}
	// Partial right block: one bright pixel among 4x16.
	b.SetRGB(19, 0, 64, 0, 0)

	require.NoError(t, PixelateImage(b))
	assert.Equal(t, [3]byte{150, 150, 150}, pixel(b, 0, 0))
	assert.Equal(t, [3]byte{150, 150, 150}, pixel(b, 15, 15))
	assert.Equal(t, [3]byte{1, 0, 0}, pixel(b, 16, 5))
	assert.Equal(t, [3]byte{0, 0, 0}, pixel(b, 4, 16))
}

func TestRotationGroup(t *testing.T) {
	for _, depth := range []int{24, 32} {
		orig := newImage(t, 5, 3, depth)

		b := orig.Clone()
		for i := 0; i < 4; i++ {
			require.NoError(t, Rotate90(b))
		}
		assert.True(t, orig.Equal(b), "rot90^4, depth %d", depth)

		b = orig.Clone()
		require.NoError(t, Rotate180(b))
		require.NoError(t, Rotate180(b))
		assert.True(t, orig.Equal(b), "rot180^2, depth %d", depth)

		b = orig.Clone()
		require.NoError(t, Rotate90(b))
		require.NoError(t, Rotate270(b))
		assert.True(t, orig.Equal(b), "rot90 then rot270, depth %d", depth)

		b = orig.Clone()
		require.NoError(t, Rotate90(b))
		require.NoError(t, Rotate90(b))
		r180 := orig.Clone()
		require.NoError(t, Rotate180(r180))
		assert.True(t, r180.Equal(b), "rot90^2 == rot180, depth %d", depth)
	}
}

func TestRotate90Mapping(t *testing.T) {
	b := newImage(t, 5, 3, 24)
	orig := b.Clone()
	require.NoError(t, Rotate90(b))

	assert.Equal(t, 3, b.Width())
	assert.Equal(t, 5, b.Height())
	// Top-right corner moves to top-left.
	assert.Equal(t, pixel(orig, 4, 0), pixel(b, 0, 0))
	assert.Equal(t, pixel(orig, 0, 0), pixel(b, 0, 4))
}

func TestFlipsAreInvolutions(t *testing.T) {
	flips := map[string]func(*bitmap.Bitmap) error{
		"vertical":   FlipV,
		"horizontal": FlipH,
		"diagonal 1": FlipD1,
		"diagonal 2": FlipD2,
	}
	for name, flip := range flips {
		t.Run(name, func(t *testing.T) {
			orig := newImage(t, 5, 4, 32)
			b := orig.Clone()
			require.NoError(t, flip(b))
			assert.False(t, orig.Equal(b))
			require.NoError(t, flip(b))
			assert.True(t, orig.Equal(b))
		})
	}
}

func TestFlipMappings(t *testing.T) {
	orig := newImage(t, 5, 4, 24)

	b := orig.Clone()
	require.NoError(t, FlipV(b))
	assert.Equal(t, pixel(orig, 4, 1), pixel(b, 0, 1))
	assert.Equal(t, pixel(orig, 2, 3), pixel(b, 2, 3), "center column is kept")

	b = orig.Clone()
	require.NoError(t, FlipH(b))
	assert.Equal(t, pixel(orig, 1, 3), pixel(b, 1, 0))

	b = orig.Clone()
	require.NoError(t, FlipD1(b))
	assert.Equal(t, 4, b.Width())
	assert.Equal(t, pixel(orig, 3, 1), pixel(b, 1, 3))

	b = orig.Clone()
	require.NoError(t, FlipD2(b))
	assert.Equal(t, pixel(orig, 4, 3), pixel(b, 0, 0))
}

func TestScaleRoundTrip(t *testing.T) {
	orig := newImage(t, 6, 4, 32)
	b := orig.Clone()

	require.NoError(t, Grow(b))
	assert.Equal(t, 12, b.Width())
	assert.Equal(t, 8, b.Height())
	assert.Equal(t, pixel(orig, 2, 1), pixel(b, 5, 3))

	require.NoError(t, Shrink(b))
	assert.True(t, orig.Equal(b))
}

func TestShrinkTooSmall(t *testing.T) {
	b := fill(t, 1, 4, 1, 2, 3)
	err := Shrink(b)
	assert.ErrorIs(t, err, bitmap.ErrInvalidWidth)
	assert.Equal(t, 1, b.Width())
}

func TestTransformsKeepStorageOrder(t *testing.T) {
	b := newImage(t, 4, 3, 24)
	b.FlipStorageOrder()
	require.NoError(t, Rotate90(b))
	assert.True(t, b.TopDown())
}

func TestApplyDispatch(t *testing.T) {
	for _, k := range Kinds() {
		orig := newImage(t, 6, 4, 24)
		viaApply := orig.Clone()
		require.NoError(t, Apply(k, viaApply, 57), k.String())
		assert.Positive(t, viaApply.Width())
	}

	b := newImage(t, 4, 4, 24)
	direct := b.Clone()
	require.NoError(t, Apply(Grayscale, b, 0))
	require.NoError(t, GrayscaleImage(direct))
	assert.True(t, direct.Equal(b))
}
