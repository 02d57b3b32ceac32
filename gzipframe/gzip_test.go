package gzipframe

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
)

func gzipCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip.Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip.Close: %v", err)
	}
	return buf.Bytes()
}

func TestInflateGzipRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("Hi\n"),
		bytes.Repeat([]byte("archex"), 10000),
	}
	for _, data := range cases {
		compressed := gzipCompress(t, data)
		got, err := Inflate(ContainerGzip, compressed)
		if err != nil {
			t.Fatalf("Inflate: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
		}
	}
}

func TestInflateGzipTrailerCorruption(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	compressed := gzipCompress(t, data)
	corrupted := append([]byte(nil), compressed...)
	corrupted[len(corrupted)-1] ^= 0xFF

	_, err := Inflate(ContainerGzip, corrupted)
	if err == nil {
		t.Fatal("expected ChecksumMismatch for flipped trailer byte")
	}
}

func TestInflateGzipSizeLimit(t *testing.T) {
	data := bytes.Repeat([]byte{'a'}, 1<<20)
	compressed := gzipCompress(t, data)

	r, err := NewGzipReader(bytes.NewReader(compressed), 1024)
	if err != nil {
		t.Fatalf("NewGzipReader: %v", err)
	}
	_, err = io.Copy(io.Discard, r)
	if err == nil {
		t.Fatal("expected size-limit error")
	}
}

func TestInflateGzipInvalidMagic(t *testing.T) {
	_, err := Inflate(ContainerGzip, []byte{0x00, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected invalid-magic error")
	}
}

func TestInflateGzipReservedFlagBits(t *testing.T) {
	compressed := gzipCompress(t, []byte("hello"))
	corrupted := append([]byte(nil), compressed...)
	corrupted[3] |= 0x20 // set a reserved flag bit
	_, err := Inflate(ContainerGzip, corrupted)
	if err == nil {
		t.Fatal("expected invalid-format error for reserved flag bits")
	}
}

func TestDetectContainerGzip(t *testing.T) {
	compressed := gzipCompress(t, []byte("x"))
	c, ok := DetectContainer(compressed[:2])
	if !ok || c != ContainerGzip {
		t.Fatalf("DetectContainer = %v, %v; want gzip, true", c, ok)
	}
}
