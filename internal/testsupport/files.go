package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"quill/internal/media"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// PNG encodes a width x height image. When padTo exceeds the encoded length
// the data is padded with zero bytes after the final chunk, which decoders
// ignore, so callers can hit exact byte sizes.
func PNG(t testing.TB, width, height int, padTo int64) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if padTo > int64(buf.Len()) {
		buf.Write(make([]byte, padTo-int64(buf.Len())))
	}
	return buf.Bytes()
}

// ImageFile returns an in-memory PNG of the given size as a media.File.
func ImageFile(t testing.TB, name string, width, height int, padTo int64) media.File {
	t.Helper()
	return media.FromBytes(name, PNG(t, width, height, padTo))
}

// WriteImage writes a PNG fixture under dir and returns its path.
func WriteImage(t testing.TB, dir, name string, width, height int, padTo int64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, PNG(t, width, height, padTo), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
