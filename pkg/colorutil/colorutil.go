// Package colorutil provides the overlay palette and hex color parsing.
package colorutil

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// Overlay colors.
var (
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// ParseHex parses "rrggbb" or "#rrggbb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(raw) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want rrggbb", s)
	}
	return color.RGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}, nil
}

// Hex formats c as "rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}
