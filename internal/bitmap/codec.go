package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPixelBytes bounds the pixel data and gap sizes Decode accepts.
const MaxPixelBytes = 1 << 30

// readChunkHint caps the up-front buffer so allocation follows the bytes
// actually read, not the sizes a header claims.
const readChunkHint = 1 << 20

// Decode reads a BMP stream: file header, DIB header, the color space block
// when the compression mode is CompressionBitfields, then the pixel data.
// Every failure is a *FormatError.
func Decode(r io.Reader) (*Bitmap, error) {
	var b Bitmap

	if err := binary.Read(r, binary.LittleEndian, &b.File); err != nil {
		return nil, readError(err)
	}
	if b.File.Type != [2]byte{'B', 'M'} {
		return nil, formatError("decode", ErrBadFileType)
	}

	if err := binary.Read(r, binary.LittleEndian, &b.Info); err != nil {
		return nil, readError(err)
	}
	consumed := FileHeaderSize + InfoHeaderSize

	depth := b.Depth()
	switch b.Info.Compression {
	case CompressionRGB:
		if depth != 24 {
			return nil, formatError("decode", fmt.Errorf("%w: %d bits without bitfields", ErrUnsupportedDepth, depth))
		}
		b.offsets = legacyOffsets
	case CompressionBitfields:
		if depth != 32 {
			return nil, formatError("decode", fmt.Errorf("%w: %d bits with bitfields", ErrUnsupportedDepth, depth))
		}
		if err := binary.Read(r, binary.LittleEndian, &b.Color); err != nil {
			return nil, readError(err)
		}
		consumed += ColorSpaceSize
		if err := b.setMasks(); err != nil {
			return nil, formatError("decode", err)
		}
	default:
		return nil, formatError("decode", fmt.Errorf("%w: mode %d", ErrCompression, b.Info.Compression))
	}

	if b.Info.Width <= 0 {
		return nil, formatError("decode", ErrInvalidWidth)
	}
	b.bpp = depth / 8
	b.stride = rowSize(depth, b.Width())

	h := b.Height()
	if h > 0 && b.stride > MaxPixelBytes/h {
		return nil, formatError("decode", fmt.Errorf("%w: %dx%d", ErrTooLarge, b.Width(), h))
	}
	want := b.stride * h
	size := int(b.Info.SizeImage)
	if size == 0 {
		size = want
	}
	if size < want {
		return nil, formatError("decode", fmt.Errorf("%w: %d bytes of pixel data, need %d", ErrTruncated, size, want))
	}
	if size > MaxPixelBytes {
		return nil, formatError("decode", fmt.Errorf("%w: %d bytes of pixel data", ErrTooLarge, size))
	}

	gap := int(b.File.OffBits) - consumed
	if gap < 0 {
		return nil, formatError("decode", fmt.Errorf("%w: offset %d, headers end at %d", ErrBadOffset, b.File.OffBits, consumed))
	}
	if gap > 0 {
		if gap > MaxPixelBytes {
			return nil, formatError("decode", fmt.Errorf("%w: %d byte gap", ErrTooLarge, gap))
		}
		gapBytes, err := readN(r, gap)
		if err != nil {
			return nil, err
		}
		b.gap = gapBytes
	}

	pix, err := readN(r, size)
	if err != nil {
		return nil, err
	}
	b.pix = pix

	return &b, nil
}

// Encode writes b in the layout Decode reads, byte for byte.
func Encode(w io.Writer, b *Bitmap) error {
	if err := binary.Write(w, binary.LittleEndian, b.File); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, b.Info); err != nil {
		return err
	}
	if b.Info.Compression != CompressionRGB {
		if err := binary.Write(w, binary.LittleEndian, b.Color); err != nil {
			return err
		}
	}
	if len(b.gap) > 0 {
		if _, err := w.Write(b.gap); err != nil {
			return err
		}
	}
	_, err := w.Write(b.pix)
	return err
}

// MarshalBinary returns the encoded BMP file.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(b.File.OffBits) + len(b.pix))
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces b with the image decoded from data.
func (b *Bitmap) UnmarshalBinary(data []byte) error {
	d, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	b.Replace(d)
	return nil
}

// setMasks assigns channel offsets from the mask order string. Each
// character names the channel of the mask at the same position. Every
// channel must appear once and select a distinct byte of the pixel.
func (b *Bitmap) setMasks() error {
	var named [4]bool
	var used [4]bool
	for i, c := range b.Color.MaskOrder {
		var ch Channel
		switch c {
		case 'B':
			ch = Blue
		case 'G':
			ch = Green
		case 'R':
			ch = Red
		case 's':
			ch = Alpha
		default:
			return fmt.Errorf("%w: %q", ErrBadMaskOrder, c)
		}
		offset := maskOffset(b.Color.Masks[i])
		if named[ch] {
			return fmt.Errorf("%w: channel %s named twice", ErrBadMaskOrder, ch)
		}
		if offset >= len(used) || used[offset] {
			return fmt.Errorf("%w: %s mask %#08x reuses byte %d", ErrBadMaskOrder, ch, b.Color.Masks[i], offset)
		}
		named[ch] = true
		used[offset] = true
		b.offsets[ch] = offset
	}
	return nil
}

// maskOffset returns which byte of a little-endian pixel a mask such as
// 0x00FF0000 selects, by counting its trailing zero bytes.
func maskOffset(mask uint32) int {
	offset := 0
	for mask > 0xFF {
		mask >>= 8
		offset++
	}
	return offset
}

// readN reads exactly n bytes from r.
func readN(r io.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(min(n, readChunkHint))
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		return nil, readError(err)
	}
	return buf.Bytes(), nil
}

func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return formatError("decode", ErrTruncated)
	}
	return formatError("decode", err)
}
