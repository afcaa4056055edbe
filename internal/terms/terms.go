// Package terms loads the newline-delimited list of search keywords.
package terms

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound reports a missing terms file. It matches fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("terms file not found: %w", fs.ErrNotExist)

const bom = "\ufeff"

// Read returns the trimmed, non-blank lines of r in their original order.
// Duplicates are kept.
func Read(r io.Reader) ([]string, error) {
	var out []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	return out, nil
}

// Load reads the terms file at path. A missing file yields ErrNotFound so the
// caller can treat it as an empty list.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open terms: %w", err)
	}
	defer f.Close()

	return Read(f)
}
