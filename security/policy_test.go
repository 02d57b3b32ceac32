package security

import (
	"testing"

	"github.com/archex-project/archex/internal/archerr"
)

func TestSanitiseRejectsEmptyPath(t *testing.T) {
	_, err := Sanitise("", DefaultPolicy())
	if !archerr.Is(err, archerr.KindEmptyPath) {
		t.Fatalf("err = %v, want KindEmptyPath", err)
	}
}

func TestSanitiseRejectsNulByte(t *testing.T) {
	_, err := Sanitise("foo\x00bar", DefaultPolicy())
	if !archerr.Is(err, archerr.KindNullByteInPath) {
		t.Fatalf("err = %v, want KindNullByteInPath", err)
	}
}

func TestSanitiseRejectsOverlongPath(t *testing.T) {
	p := DefaultPolicy()
	p.MaxPathLength = 8
	_, err := Sanitise("this/path/is/too/long", p)
	if !archerr.Is(err, archerr.KindPathTooLong) {
		t.Fatalf("err = %v, want KindPathTooLong", err)
	}
}

// TestSanitiseRejectsAbsolutePaths covers the teacher's
// TestOpenFile_PathTraversal "absolute path" and "Windows-style traversal"
// cases.
func TestSanitiseRejectsAbsolutePaths(t *testing.T) {
	cases := []string{"/etc/passwd", `C:\Windows\System32\config`, `\\server\share\file`}
	for _, tc := range cases {
		_, err := Sanitise(tc, DefaultPolicy())
		if !archerr.Is(err, archerr.KindAbsolutePathNotAllowed) {
			t.Errorf("Sanitise(%q) err = %v, want KindAbsolutePathNotAllowed", tc, err)
		}
	}
}

// TestSanitiseRejectsTraversal covers spec.md §9 scenario 3 and the
// teacher's "../../../../../../../etc/passwd" case.
func TestSanitiseRejectsTraversal(t *testing.T) {
	cases := []string{
		"../../../etc/passwd",
		"../../../../../../../etc/passwd",
		"a/b/../../../c",
	}
	for _, tc := range cases {
		_, err := Sanitise(tc, DefaultPolicy())
		if !archerr.Is(err, archerr.KindPathTraversal) {
			t.Errorf("Sanitise(%q) err = %v, want KindPathTraversal", tc, err)
		}
	}
}

// TestSanitiseUnicodeDotTraversal covers the teacher's Unicode-dot
// traversal case: a look-alike dot sequence that NFKC-normalises into a
// real ".." component.
func TestSanitiseUnicodeDotTraversal(t *testing.T) {
	// U+FF0E FULLWIDTH FULL STOP normalises to U+002E under NFKC.
	tricky := "a/\uFF0E\uFF0E/\uFF0E\uFF0E/etc/passwd"
	_, err := Sanitise(tricky, DefaultPolicy())
	if err == nil {
		t.Fatal("expected an error for Unicode look-alike traversal, got nil")
	}
}

func TestSanitiseAllowsOrdinaryPaths(t *testing.T) {
	cases := map[string]string{
		"a/b/c.txt":     "a/b/c.txt",
		"./a/./b":       "a/b",
		"a/b/../c":      "a/c",
		"dir/":          "dir",
		"a//b":          "a/b",
	}
	for in, want := range cases {
		got, err := Sanitise(in, DefaultPolicy())
		if err != nil {
			t.Errorf("Sanitise(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Sanitise(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitiseAllowPathTraversalOptIn(t *testing.T) {
	p := DefaultPolicy()
	p.AllowPathTraversal = true
	got, err := Sanitise("../escape", p)
	if err != nil {
		t.Fatalf("Sanitise: %v", err)
	}
	if got != "../escape" {
		t.Errorf("got %q, want \"../escape\"", got)
	}
}

func TestCheckLinkDisallowedByDefault(t *testing.T) {
	err := CheckLink("link", "", "target.txt", DefaultPolicy())
	if !archerr.Is(err, archerr.KindSymlinkNotAllowed) {
		t.Fatalf("err = %v, want KindSymlinkNotAllowed", err)
	}
}

func TestCheckLinkRejectsAbsoluteTarget(t *testing.T) {
	p := DefaultPolicy()
	p.SymlinkPolicy = SymlinkAllowInsideRoot
	err := CheckLink("link", "", "/etc/passwd", p)
	if !archerr.Is(err, archerr.KindAbsoluteSymlinkNotAllowed) {
		t.Fatalf("err = %v, want KindAbsoluteSymlinkNotAllowed", err)
	}
}

func TestCheckLinkRejectsEscapingTarget(t *testing.T) {
	p := DefaultPolicy()
	p.SymlinkPolicy = SymlinkAllowInsideRoot
	err := CheckLink("sub/link", "sub", "../../../outside.txt", p)
	if !archerr.Is(err, archerr.KindSymlinkEscape) {
		t.Fatalf("err = %v, want KindSymlinkEscape", err)
	}
}

func TestCheckLinkAllowsContainedTarget(t *testing.T) {
	p := DefaultPolicy()
	p.SymlinkPolicy = SymlinkAllowInsideRoot
	if err := CheckLink("sub/link", "sub", "../other.txt", p); err != nil {
		t.Fatalf("CheckLink: %v", err)
	}
}

func TestCheckLinkAllowAnyBypassesEscapeCheck(t *testing.T) {
	p := DefaultPolicy()
	p.SymlinkPolicy = SymlinkAllowAny
	p.AllowAbsoluteSymlink = true
	if err := CheckLink("link", "sub", "/etc/passwd", p); err != nil {
		t.Fatalf("CheckLink: %v", err)
	}
}

func TestCheckSingleFileLimit(t *testing.T) {
	p := DefaultPolicy()
	p.MaxSingleFileSize = 1024
	if err := CheckSingleFile("big.bin", 2048, p); !archerr.Is(err, archerr.KindFileSizeExceedsLimit) {
		t.Fatalf("err = %v, want KindFileSizeExceedsLimit", err)
	}
	if err := CheckSingleFile("small.bin", 512, p); err != nil {
		t.Fatalf("CheckSingleFile: %v", err)
	}
}

func TestResourceTrackerTotalSizeCeiling(t *testing.T) {
	p := DefaultPolicy()
	p.MaxTotalExtractedSize = 1000
	rt := &ResourceTracker{Written: 1001}
	if err := rt.CheckCeilings(p); !archerr.Is(err, archerr.KindTotalSizeExceedsLimit) {
		t.Fatalf("err = %v, want KindTotalSizeExceedsLimit", err)
	}
}

// TestResourceTrackerCompressionRatio covers spec.md §9 scenario 5: a
// zip-bomb-style archive with an extreme ratio is caught once the
// statistical-significance floor is crossed.
func TestResourceTrackerCompressionRatio(t *testing.T) {
	p := DefaultPolicy()
	p.MaxCompressionRatio = 100
	p.MaxTotalExtractedSize = 50 << 20

	rt := &ResourceTracker{Written: 1 << 10, CompressedConsumed: 1 << 9}
	if err := rt.CheckCeilings(p); err != nil {
		t.Fatalf("below sample floor should not trigger: %v", err)
	}

	rt = &ResourceTracker{Written: 200 << 20, CompressedConsumed: 1 << 20}
	err := rt.CheckCeilings(p)
	if !archerr.Is(err, archerr.KindSuspiciousCompressionRatio) && !archerr.Is(err, archerr.KindTotalSizeExceedsLimit) {
		t.Fatalf("err = %v, want SuspiciousCompressionRatio or TotalSizeExceedsLimit", err)
	}
}
