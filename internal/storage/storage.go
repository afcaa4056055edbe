package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Batch is the set of product links extracted from one search result page.
type Batch struct {
	RunID       string
	Term        string
	Marketplace string
	SearchURL   string
	Links       []string
	FoundAt     time.Time
}

// Sink appends batches to durable output. Implementations open, write and
// close their target on every Append, so no handle is held between fetches.
type Sink interface {
	Append(ctx context.Context, batch Batch) error
	// Location describes where batches go, for log lines.
	Location() string
}

// Format selects a Sink implementation.
type Format string

const (
	FormatText   Format = "text"
	FormatNDJSON Format = "ndjson"
)

// ParseFormat maps a case-insensitive name to a Format; "" means FormatText.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatText:
		return FormatText, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("storage: unknown output format %q", name)
	}
}
