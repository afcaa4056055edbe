// Package textfile appends product links to a plain text file, one per line.
package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/watsoncoders/amazonscraper/internal/storage"
)

// ensure Sink implements storage.Sink
var _ storage.Sink = (*Sink)(nil)

// Sink writes links to a UTF-8 text file with append semantics. Existing
// content is never truncated, so repeated runs accumulate.
type Sink struct {
	mu   sync.Mutex
	path string
}

// New creates a Sink for path. The file is created on the first Append.
func New(path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("textfile: empty output path")
	}
	return &Sink{path: path}, nil
}

// Append opens the file, writes one line per link and closes it again.
func (s *Sink) Append(ctx context.Context, batch storage.Batch) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch.Links) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("textfile: open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("textfile: close %s: %w", s.path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, link := range batch.Links {
		if _, err := w.WriteString(link + "\n"); err != nil {
			return fmt.Errorf("textfile: write %s: %w", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("textfile: flush %s: %w", s.path, err)
	}
	return nil
}

// Location returns the output path.
func (s *Sink) Location() string {
	return s.path
}
