// Command archex extracts tape archives under a security policy that
// rejects path traversal, unsafe symlinks, and resource exhaustion.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/archex-project/archex"
	"github.com/archex-project/archex/archive"
	"github.com/archex-project/archex/internal/archerr"
	"github.com/archex-project/archex/security"
)

const appVersion = "0.1.0"

// Exit codes per the command-line surface's external contract.
const (
	exitOK                = 0
	exitGeneralError      = 1
	exitArgumentError     = 2
	exitFileNotFound      = 3
	exitPermissionDenied  = 4
	exitCorruptedArchive  = 5
	exitUnsupportedFormat = 6
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitArgumentError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var code int
	switch cmd {
	case "extract", "x":
		code = runExtract(args)
	case "list", "l", "ls":
		code = runList(args)
	case "test", "t":
		code = runTest(args)
	case "help", "h", "-h", "-help", "--help":
		printUsage()
		code = exitOK
	case "version", "v", "-v", "-version", "--version":
		fmt.Printf("archex version %s\n", appVersion)
		code = exitOK
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		printUsage()
		code = exitArgumentError
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] <archive>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  extract, x    extract an archive to a destination directory\n")
	fmt.Fprintf(os.Stderr, "  list, l, ls   list the files in an archive\n")
	fmt.Fprintf(os.Stderr, "  test, t       verify an archive's integrity without extracting\n")
	fmt.Fprintf(os.Stderr, "  help, h       print this message\n")
	fmt.Fprintf(os.Stderr, "  version, v    print the version\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  %s extract archive.tar.gz -dest ./out\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s list archive.tar\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s test archive.tar.gz\n", os.Args[0])
}

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	dest := fs.String("dest", "", "destination directory (required)")
	overwrite := fs.Bool("overwrite", false, "overwrite existing files")
	continueOnError := fs.Bool("continue-on-error", false, "continue extracting after a per-entry error")
	allowAbsolute := fs.Bool("allow-absolute-paths", false, "allow entries with absolute paths")
	allowTraversal := fs.Bool("allow-path-traversal", false, "allow entries that escape the destination root")
	symlinkPolicy := fs.String("symlink-policy", "disallow", "symlink policy: disallow, inside-root, any")
	maxFileSize := fs.Int64("max-file-size", 0, "reject any single entry larger than this many bytes (0 = unbounded)")
	maxTotalSize := fs.Int64("max-total-size", 0, "abort once extracted bytes exceed this total (0 = unbounded)")
	maxRatio := fs.Float64("max-compression-ratio", 0, "abort once the compression ratio exceeds this (0 = unbounded)")
	verbose := fs.Bool("v", false, "print each entry as it is extracted")
	if err := fs.Parse(args); err != nil {
		return exitArgumentError
	}

	archivePath := fs.Arg(0)
	if archivePath == "" || *dest == "" {
		fmt.Fprintf(os.Stderr, "Error: archive path and -dest are required\n")
		return exitArgumentError
	}

	policy, err := buildPolicy(*allowAbsolute, *allowTraversal, *symlinkPolicy, *maxFileSize, *maxTotalSize, *maxRatio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitArgumentError
	}

	opts := archex.DefaultOptions(*dest)
	opts.Policy = policy
	opts.Overwrite = *overwrite
	opts.ContinueOnError = *continueOnError
	if *verbose {
		opts.Verbose = func(ev archex.Event) {
			fmt.Fprintf(os.Stderr, "%s\n", formatEvent(ev))
		}
	}

	result, err := archex.Extract(context.Background(), archivePath, *dest, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting archive: %v\n", err)
		return exitCodeForError(err)
	}

	fmt.Printf("Extracted %d entries (%d failed)\n", result.Succeeded, result.Failed)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s (%s)\n", w.EntryPath, w.Message, w.Kind)
	}
	if result.Failed > 0 {
		return exitGeneralError
	}
	return exitOK
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitArgumentError
	}
	archivePath := fs.Arg(0)
	if archivePath == "" {
		fmt.Fprintf(os.Stderr, "Error: archive path is required\n")
		return exitArgumentError
	}

	arc, err := archive.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
		return exitCodeForError(err)
	}
	defer func() { _ = arc.Close() }()

	files, err := arc.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing archive: %v\n", err)
		return exitCodeForError(err)
	}
	for _, f := range files {
		fmt.Printf("%10d  %s\n", f.Size, f.Name)
	}
	return exitOK
}

func runTest(args []string) int {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitArgumentError
	}
	archivePath := fs.Arg(0)
	if archivePath == "" {
		fmt.Fprintf(os.Stderr, "Error: archive path is required\n")
		return exitArgumentError
	}

	arc, err := archive.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
		return exitCodeForError(err)
	}
	defer func() { _ = arc.Close() }()

	files, err := arc.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading archive: %v\n", err)
		return exitCodeForError(err)
	}

	for _, f := range files {
		r, _, err := arc.Open(f.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f.Name, err)
			return exitCodeForError(err)
		}
		_, err = io.Copy(io.Discard, r)
		_ = r.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error verifying %s: %v\n", f.Name, err)
			return exitCorruptedArchive
		}
	}
	fmt.Printf("OK: %d entries verified\n", len(files))
	return exitOK
}

func buildPolicy(allowAbsolute, allowTraversal bool, symlinkPolicy string, maxFileSize, maxTotalSize int64, maxRatio float64) (security.Policy, error) {
	policy := security.DefaultPolicy()
	policy.AllowAbsolutePaths = allowAbsolute
	policy.AllowPathTraversal = allowTraversal
	policy.MaxSingleFileSize = maxFileSize
	policy.MaxTotalExtractedSize = maxTotalSize
	policy.MaxCompressionRatio = maxRatio

	switch symlinkPolicy {
	case "disallow":
		policy.SymlinkPolicy = security.SymlinkDisallow
	case "inside-root":
		policy.SymlinkPolicy = security.SymlinkAllowInsideRoot
	case "any":
		policy.SymlinkPolicy = security.SymlinkAllowAny
	default:
		return policy, fmt.Errorf("unknown -symlink-policy %q", symlinkPolicy)
	}
	return policy, nil
}

func formatEvent(ev archex.Event) string {
	switch ev.Kind {
	case archex.EventEntryExtracted:
		return fmt.Sprintf("extracted %s", ev.EntryPath)
	case archex.EventEntrySkipped:
		return fmt.Sprintf("skipped %s: %s", ev.EntryPath, ev.Message)
	default:
		return fmt.Sprintf("warning %s: %s", ev.EntryPath, ev.Message)
	}
}

func exitCodeForError(err error) int {
	switch {
	case archerr.Is(err, archerr.KindFileNotFound):
		return exitFileNotFound
	case archerr.Is(err, archerr.KindPermissionDenied):
		return exitPermissionDenied
	case archerr.Is(err, archerr.KindInvalidFormat),
		archerr.Is(err, archerr.KindCorruptedHeader),
		archerr.Is(err, archerr.KindIncompleteArchive),
		archerr.Is(err, archerr.KindInvalidGzipMagic),
		archerr.Is(err, archerr.KindChecksumMismatch),
		archerr.Is(err, archerr.KindInvalidData):
		return exitCorruptedArchive
	case archerr.Is(err, archerr.KindUnsupportedVersion),
		archerr.Is(err, archerr.KindUnsupportedCompressionMethod),
		archerr.Is(err, archerr.KindUnsupportedEntryType):
		return exitUnsupportedFormat
	default:
		if _, ok := err.(archive.FormatError); ok { //nolint:errorlint // archive.Open never wraps FormatError
			return exitUnsupportedFormat
		}
		// os.IsNotExist/os.IsPermission only type-switch on the error
		// itself, not an Unwrap chain, so they miss a *fs.PathError
		// wrapped via fmt.Errorf("...: %w", err) — errors.Is walks the
		// chain and catches both the bare and the wrapped case.
		if errors.Is(err, fs.ErrNotExist) {
			return exitFileNotFound
		}
		if errors.Is(err, fs.ErrPermission) {
			return exitPermissionDenied
		}
		return exitGeneralError
	}
}
