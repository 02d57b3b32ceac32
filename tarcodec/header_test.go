package tarcodec

import (
	"testing"

	"github.com/archex-project/archex/checksum"
)

func mustEncode(t *testing.T, h Header) [checksum.HeaderSize]byte {
	t.Helper()
	block, err := Encode(h)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return block
}

func TestParseRejectsBadMagic(t *testing.T) {
	h := Header{Name: "hello.txt", Mode: 0644, Typeflag: TypeRegular}
	block := mustEncode(t, h)
	block[offMagic] = 'x'
	// Recompute checksum doesn't matter; magic check happens first.
	if _, err := Parse(block); err == nil {
		t.Fatal("expected error for corrupted magic")
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	h := Header{Name: "hello.txt", Mode: 0644, Typeflag: TypeRegular}
	block := mustEncode(t, h)
	block[0] ^= 0xFF // corrupt a name byte without updating checksum
	if _, err := Parse(block); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	h := Header{
		Name:     "hello.txt",
		Mode:     0644,
		UID:      1000,
		GID:      1000,
		Size:     3,
		Mtime:    1700000000,
		Typeflag: TypeRegular,
		Uname:    "user",
		Gname:    "group",
	}
	block := mustEncode(t, h)
	got, err := Parse(block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Name != h.Name || got.Mode != h.Mode || got.Size != h.Size || got.Mtime != h.Mtime {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestIsZeroBlock(t *testing.T) {
	var zero [checksum.HeaderSize]byte
	if !IsZeroBlock(&zero) {
		t.Error("expected all-zero block to report zero")
	}
	block := mustEncode(t, Header{Name: "x", Typeflag: TypeRegular})
	if IsZeroBlock(&block) {
		t.Error("expected non-zero block to not report zero")
	}
}
