// Package ndjson appends product links as newline-delimited JSON records.
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/watsoncoders/amazonscraper/internal/storage"
)

// ensure Sink implements storage.Sink
var _ storage.Sink = (*Sink)(nil)

// Record is one line of the output file.
type Record struct {
	RunID       string    `json:"run_id"`
	Term        string    `json:"term"`
	Marketplace string    `json:"marketplace"`
	SearchURL   string    `json:"search_url"`
	URL         string    `json:"url"`
	FoundAt     time.Time `json:"found_at"`
}

// Sink writes one Record per link with append semantics.
type Sink struct {
	mu   sync.Mutex
	path string
}

// New creates a Sink for path. The file is created on the first Append.
func New(path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("ndjson: empty output path")
	}
	return &Sink{path: path}, nil
}

// Append encodes the batch before touching the file, then opens, appends and
// closes it, so a marshal failure leaves the file untouched.
func (s *Sink) Append(ctx context.Context, batch storage.Batch) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch.Links) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, link := range batch.Links {
		rec := Record{
			RunID:       batch.RunID,
			Term:        batch.Term,
			Marketplace: batch.Marketplace,
			SearchURL:   batch.SearchURL,
			URL:         link,
			FoundAt:     batch.FoundAt.UTC(),
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("ndjson: encode: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("ndjson: open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ndjson: close %s: %w", s.path, cerr)
		}
	}()

	if _, err := buf.WriteTo(f); err != nil {
		return fmt.Errorf("ndjson: write %s: %w", s.path, err)
	}
	return nil
}

// Location returns the output path.
func (s *Sink) Location() string {
	return s.path
}

// ReadAll decodes every record in the file at path, in file order. It is the
// reader for downstream tools that consume the harvest output, such as CSV
// or catalogue import jobs.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ndjson: open %s: %w", path, err)
	}
	defer f.Close()

	var out []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("ndjson: decode %s: %w", path, err)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ndjson: read %s: %w", path, err)
	}
	return out, nil
}
