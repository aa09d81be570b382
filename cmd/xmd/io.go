package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alnah/go-xmd/internal/fileutil"
)

// Input limits.
const (
	maxSnapshotBytes = 64 << 20
	maxTextBytes     = 1 << 20
)

// readInput reads path, or stdin for "" and "-". Reading an interactive
// terminal is refused so a missing argument does not hang.
func readInput(path string, stdin io.Reader, limit int64) ([]byte, error) {
	if path == "" || path == "-" {
		if stdin == nil || isTerminal(stdin) {
			return nil, ErrNoInput
		}
	}
	data, err := fileutil.ReadInput(path, stdin, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, limit)
	}
	return data, nil
}

// readSnapshot reads a captured feed page.
func readSnapshot(path string, stdin io.Reader) ([]byte, error) {
	return readInput(path, stdin, maxSnapshotBytes)
}

// writeOutput writes data to path atomically, or to stdout when path is
// empty or "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
