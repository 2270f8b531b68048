// Package filter implements the image operations applied to a bitmap: color
// filters, the dihedral transforms and 2x scaling. Every operation builds its
// result in a scratch bitmap and swaps it in, so a failed call leaves the
// input untouched.
package filter

import (
	"fmt"

	"contour-tracer/internal/bitmap"
)

// Kind identifies one filter.
type Kind int

const (
	Identity Kind = iota
	CelShade
	Grayscale
	Pixelate
	Blur
	Rot90
	Rot180
	Rot270
	FlipVertical
	FlipHorizontal
	FlipDiagonal1
	FlipDiagonal2
	ScaleUp
	ScaleDown
	Binarize
)

type kindInfo struct {
	name  string
	flag  string
	usage string
}

var kinds = [...]kindInfo{
	Identity:       {"identity", "-i", "identity"},
	CelShade:       {"cel-shade", "-c", "cell shade"},
	Grayscale:      {"grayscale", "-g", "gray scale"},
	Pixelate:       {"pixelate", "-p", "pixelate"},
	Blur:           {"blur", "-b", "blur"},
	Rot90:          {"rot90", "-r90", "rotate 90"},
	Rot180:         {"rot180", "-r180", "rotate 180"},
	Rot270:         {"rot270", "-r270", "rotate 270"},
	FlipVertical:   {"flip-vertical", "-v", "flip vertically"},
	FlipHorizontal: {"flip-horizontal", "-h", "flip horizontally"},
	FlipDiagonal1:  {"flip-diagonal-1", "-d1", "flip diagonally 1"},
	FlipDiagonal2:  {"flip-diagonal-2", "-d2", "flip diagonally 2"},
	ScaleUp:        {"scale-up", "-grow", "scale the image by 2"},
	ScaleDown:      {"scale-down", "-shrink", "scale the image by .5"},
	Binarize:       {"binarize", "-binary", "binarize at the isovalue"},
}

// Kinds returns every filter in flag order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) valid() bool { return k >= 0 && int(k) < len(kinds) }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// Flag returns the command line switch selecting k.
func (k Kind) Flag() string {
	if !k.valid() {
		return ""
	}
	return kinds[k].flag
}

// Usage returns a short human description of k.
func (k Kind) Usage() string {
	if !k.valid() {
		return ""
	}
	return kinds[k].usage
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("unknown filter kind %d", int(k))
	}
	return []byte(kinds[k].name), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseName resolves a filter name such as "grayscale" or "rot90".
func ParseName(name string) (Kind, error) {
	for i, info := range kinds {
		if info.name == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", name)
}

// ParseFlag resolves a command line switch such as "-g" or "-r90".
func ParseFlag(flag string) (Kind, error) {
	for i, info := range kinds {
		if info.flag == flag {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown option %q", flag)
}

// Apply runs filter k on b. iso is only read by Binarize.
func Apply(k Kind, b *bitmap.Bitmap, iso int) error {
	switch k {
	case Identity:
		return nil
	case CelShade:
		return CelShadeImage(b)
	case Grayscale:
		return GrayscaleImage(b)
	case Pixelate:
		return PixelateImage(b)
	case Blur:
		return BlurImage(b)
	case Rot90:
		return Rotate90(b)
	case Rot180:
		return Rotate180(b)
	case Rot270:
		return Rotate270(b)
	case FlipVertical:
		return FlipV(b)
	case FlipHorizontal:
		return FlipH(b)
	case FlipDiagonal1:
		return FlipD1(b)
	case FlipDiagonal2:
		return FlipD2(b)
	case ScaleUp:
		return Grow(b)
	case ScaleDown:
		return Shrink(b)
	case Binarize:
		return BinarizeImage(b, iso)
	default:
		return fmt.Errorf("unknown filter kind %d", int(k))
	}
}
