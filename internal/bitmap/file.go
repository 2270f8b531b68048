package bitmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks files holding a zstd-compressed BMP stream.
const CompressedExt = ".zst"

// IsCompressedPath reports whether path names a zstd-compressed bitmap.
func IsCompressedPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), CompressedExt)
}

// Load reads a bitmap from disk. Paths ending in .zst are decompressed on
// the fly.
func Load(path string) (*Bitmap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bitmap: %w", err)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if IsCompressedPath(path) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	b, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Save writes a bitmap to disk, compressing it when the path ends in .zst.
func Save(path string, b *Bitmap) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create bitmap: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	// Create a buffer (to reduce syscalls)
	w := bufio.NewWriter(file)

	if IsCompressedPath(path) {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to open zstd stream: %w", err)
		}
		if err := Encode(enc, b); err != nil {
			enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else if err := Encode(w, b); err != nil {
		return err
	}

	return w.Flush()
}
