// Package bitmap holds uncompressed 24-bit and 32-bit BMP images as a flat
// byte buffer plus the header metadata needed to address it.
package bitmap

import (
	"bytes"
)

// On-disk block sizes in bytes.
const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	ColorSpaceSize = 84
)

// Compression modes understood by the codec.
const (
	CompressionRGB       = 0 // 24 bits per pixel, fixed BGR order
	CompressionBitfields = 3 // 32 bits per pixel, channel masks in the color space block
)

// FileHeader is the 14 byte BMP file header.
type FileHeader struct {
	Type      [2]byte // "BM"
	Size      uint32  // Size of the whole file in bytes
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32 // Offset from the start of the file to the pixel data
}

// InfoHeader is the DIB header.
type InfoHeader struct {
	Size            uint32 // Size of this header
	Width           int32  // Width in pixels
	Height          int32  // Height in pixels; negative means rows are stored top-down
	Planes          uint16 // Number of color planes
	BitCount        uint16 // Color depth in bits per pixel
	Compression     uint32 // CompressionRGB or CompressionBitfields
	SizeImage       uint32 // Size of the raw pixel data
	XResolution     uint32 // Horizontal resolution, pixels per meter
	YResolution     uint32 // Vertical resolution, pixels per meter
	ColorsUsed      uint32 // Colors in the palette
	ColorsImportant uint32 // Important colors
}

// ColorSpace follows the DIB header only when Compression is
// CompressionBitfields.
type ColorSpace struct {
	Masks       [4]uint32 // Channel masks, paired positionally with MaskOrder
	MaskOrder   [4]byte   // 'B', 'G', 'R' or 's' (alpha) per mask
	Calibration [16]uint32
}

// Channel names one color component of a pixel.
type Channel int

const (
	Blue Channel = iota
	Green
	Red
	Alpha
)

func (c Channel) String() string {
	switch c {
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Red:
		return "red"
	case Alpha:
		return "alpha"
	default:
		return "unknown"
	}
}

// legacyOffsets is the fixed channel layout of 24-bit images.
var legacyOffsets = [4]int{Blue: 0, Green: 1, Red: 2, Alpha: 3}

// Bitmap is a decoded BMP image. Pixel (x, y) with y = 0 as the top row is
// addressed through Offset regardless of the storage order, so callers never
// deal with row flipping or padding.
type Bitmap struct {
	File  FileHeader
	Info  InfoHeader
	Color ColorSpace

	offsets [4]int // byte offset of each Channel within a pixel
	stride  int    // bytes per row including padding
	bpp     int    // bytes per pixel
	gap     []byte // bytes between the headers and the pixel data
	pix     []byte
}

// New creates a zeroed bottom-up bitmap. depth must be 24 or 32; 32-bit
// images carry an alpha channel and a BGRs color space block.
func New(width, height, depth int) (*Bitmap, error) {
	if width <= 0 {
		return nil, &DimensionError{Width: width, Height: height}
	}
	if depth != 24 && depth != 32 {
		return nil, formatError("new", ErrUnsupportedDepth)
	}

	b := &Bitmap{
		File: FileHeader{Type: [2]byte{'B', 'M'}},
		Info: InfoHeader{
			Size:        InfoHeaderSize,
			Planes:      1,
			BitCount:    uint16(depth),
			Compression: CompressionRGB,
			XResolution: 2835,
			YResolution: 2835,
		},
		offsets: legacyOffsets,
		bpp:     depth / 8,
	}
	if depth == 32 {
		b.Info.Size = InfoHeaderSize + ColorSpaceSize
		b.Info.Compression = CompressionBitfields
		b.Color = ColorSpace{
			Masks:     [4]uint32{0x000000FF, 0x0000FF00, 0x00FF0000, 0xFF000000},
			MaskOrder: [4]byte{'B', 'G', 'R', 's'},
		}
	}
	b.File.OffBits = FileHeaderSize + b.Info.Size

	if err := b.SetDimension(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

// rowSize returns the 4-byte aligned size of one row.
func rowSize(depth, width int) int {
	return ((depth*width + 31) / 32) * 4
}

// Width returns the image width in pixels.
func (b *Bitmap) Width() int { return int(b.Info.Width) }

// Height returns the absolute image height in pixels.
func (b *Bitmap) Height() int {
	if b.Info.Height < 0 {
		return -int(b.Info.Height)
	}
	return int(b.Info.Height)
}

// TopDown reports whether rows are stored top row first.
func (b *Bitmap) TopDown() bool { return b.Info.Height < 0 }

// Depth returns the color depth in bits.
func (b *Bitmap) Depth() int { return int(b.Info.BitCount) }

// BytesPerPixel returns 3 or 4.
func (b *Bitmap) BytesPerPixel() int { return b.bpp }

// Stride returns the row size in bytes, padding included.
func (b *Bitmap) Stride() int { return b.stride }

// Padding returns the number of padding bytes at the end of each row.
func (b *Bitmap) Padding() int { return b.stride - b.Width()*b.bpp }

// HasAlpha reports whether the image carries an alpha channel.
func (b *Bitmap) HasAlpha() bool {
	return b.bpp == 4 && b.Info.Compression == CompressionBitfields
}

// ChannelOffset returns the byte offset of c within a pixel.
func (b *Bitmap) ChannelOffset(c Channel) int { return b.offsets[c] }

// Pix returns the raw pixel buffer. It aliases the bitmap's storage.
func (b *Bitmap) Pix() []byte { return b.pix }

// Offset returns the buffer index of channel c of pixel (x, y).
func (b *Bitmap) Offset(x, y int, c Channel) (int, error) {
	h := b.Height()
	if x < 0 || y < 0 || x >= b.Width() || y >= h {
		return 0, &BoundsError{X: x, Y: y, Width: b.Width(), Height: h}
	}
	row := y
	if b.Info.Height > 0 {
		row = h - 1 - y
	}
	return row*b.stride + x*b.bpp + b.offsets[c], nil
}

// At returns channel c of pixel (x, y). It panics with a *BoundsError when
// the coordinates fall outside the image.
func (b *Bitmap) At(x, y int, c Channel) byte {
	i, err := b.Offset(x, y, c)
	if err != nil {
		panic(err)
	}
	return b.pix[i]
}

// Set stores v into channel c of pixel (x, y). It panics with a
// *BoundsError when the coordinates fall outside the image.
func (b *Bitmap) Set(x, y int, c Channel, v byte) {
	i, err := b.Offset(x, y, c)
	if err != nil {
		panic(err)
	}
	b.pix[i] = v
}

// RGB returns the red, green and blue values of pixel (x, y).
func (b *Bitmap) RGB(x, y int) (r, g, bl byte) {
	return b.At(x, y, Red), b.At(x, y, Green), b.At(x, y, Blue)
}

// SetRGB stores the red, green and blue values of pixel (x, y).
func (b *Bitmap) SetRGB(x, y int, r, g, bl byte) {
	b.Set(x, y, Red, r)
	b.Set(x, y, Green, g)
	b.Set(x, y, Blue, bl)
}

// CopyPixel copies every channel of src (sx, sy) into b (dx, dy), alpha
// only when src has one.
func (b *Bitmap) CopyPixel(dx, dy int, src *Bitmap, sx, sy int) {
	b.Set(dx, dy, Red, src.At(sx, sy, Red))
	b.Set(dx, dy, Green, src.At(sx, sy, Green))
	b.Set(dx, dy, Blue, src.At(sx, sy, Blue))
	if src.HasAlpha() {
		b.Set(dx, dy, Alpha, src.At(sx, sy, Alpha))
	}
}

// SetDimension changes the image size and resizes the buffer to match.
// Existing pixel content is not preserved: callers must write every pixel
// afterwards. A negative height selects top-down storage.
func (b *Bitmap) SetDimension(width, height int) error {
	if width <= 0 {
		return &DimensionError{Width: width, Height: height}
	}

	stride := rowSize(b.Depth(), width)
	rows := height
	if rows < 0 {
		rows = -rows
	}
	raw := stride * rows

	b.Info.Width = int32(width)
	b.Info.Height = int32(height)
	b.Info.SizeImage = uint32(raw)
	b.stride = stride
	if len(b.pix) != raw {
		b.pix = make([]byte, raw)
	}
	b.File.Size = uint32(raw) + b.File.OffBits
	return nil
}

// FlipStorageOrder negates the stored height, which mirrors the image
// vertically without touching the pixel buffer.
func (b *Bitmap) FlipStorageOrder() {
	b.Info.Height = -b.Info.Height
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	c := b.CloneEmpty()
	copy(c.pix, b.pix)
	return c
}

// CloneEmpty returns a copy with identical metadata and a zeroed buffer of
// the same size.
func (b *Bitmap) CloneEmpty() *Bitmap {
	c := *b
	c.pix = make([]byte, len(b.pix))
	if b.gap != nil {
		c.gap = append([]byte(nil), b.gap...)
	}
	return &c
}

// Replace swaps the contents of other into b. other must not be used
// afterwards.
func (b *Bitmap) Replace(other *Bitmap) {
	*b = *other
}

// Equal reports whether two bitmaps have identical headers and bytes.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.File == other.File &&
		b.Info == other.Info &&
		b.Color == other.Color &&
		b.offsets == other.offsets &&
		bytes.Equal(b.gap, other.gap) &&
		bytes.Equal(b.pix, other.pix)
}
