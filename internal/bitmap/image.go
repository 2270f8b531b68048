package bitmap

import (
	"image"
	"image/color"
	"io"

	xbmp "golang.org/x/image/bmp"
)

// Image converts the bitmap to an image.Image. Images without an alpha
// channel come out opaque.
func (b *Bitmap) Image() *image.NRGBA {
	w, h := b.Width(), b.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := b.RGB(x, y)
			a := byte(0xFF)
			if b.HasAlpha() {
				a = b.At(x, y, Alpha)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: a})
		}
	}
	return img
}

// FromImage builds a bottom-up 24-bit bitmap from any image.
func FromImage(img image.Image) (*Bitmap, error) {
	bounds := img.Bounds()
	b, err := New(bounds.Dx(), bounds.Dy(), 24)
	if err != nil {
		return nil, err
	}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return b, nil
}

// Import decodes BMP variants the native codec rejects, such as paletted or
// 16-bit files, and converts them to a 24-bit bitmap.
func Import(r io.Reader) (*Bitmap, error) {
	img, err := xbmp.Decode(r)
	if err != nil {
		return nil, formatError("import", err)
	}
	return FromImage(img)
}
