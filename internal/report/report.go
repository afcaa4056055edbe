// Package report summarizes a harvest run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/watsoncoders/amazonscraper/internal/harvest"
)

// Summary contains aggregated metrics about one harvest run.
type Summary struct {
	RunID         string         `json:"run_id,omitempty"`
	Output        string         `json:"output,omitempty"`
	TotalRequests int            `json:"total_requests"`
	Successful    int            `json:"successful"`
	TotalLinks    int            `json:"total_links"`
	TotalErrors   int            `json:"total_errors"`
	Non200        int            `json:"non_200"`
	EmptyPages    int            `json:"empty_pages"`
	RobotsSkipped int            `json:"robots_skipped"`
	SinkErrors    int            `json:"sink_errors"`
	TotalBytes    int64          `json:"total_bytes"`
	StatusCodes   map[int]int    `json:"status_codes"`
	BlocksBySrc   map[string]int `json:"blocks_by_source"`
	LinksByMarket map[string]int `json:"links_by_marketplace"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Duration      time.Duration  `json:"duration_ns"`
	Interrupted   bool           `json:"interrupted,omitempty"`
}

// GenerateSummary aggregates the outcomes of a run. Requests counts pairs
// that reached the network, so robots.txt skips are excluded from it.
func GenerateSummary(outcomes []harvest.Outcome) Summary {
	s := Summary{
		StatusCodes:   make(map[int]int),
		BlocksBySrc:   make(map[string]int),
		LinksByMarket: make(map[string]int),
	}

	if len(outcomes) == 0 {
		return s
	}

	s.StartTime = outcomes[0].At
	s.EndTime = outcomes[0].At

	for _, o := range outcomes {
		if o.At.Before(s.StartTime) {
			s.StartTime = o.At
		}
		if end := o.At.Add(o.Duration); end.After(s.EndTime) {
			s.EndTime = end
		}

		if o.Skip == harvest.SkipRobots {
			s.RobotsSkipped++
			continue
		}

		s.TotalRequests++
		s.TotalBytes += int64(o.Bytes)
		if o.StatusCode > 0 {
			s.StatusCodes[o.StatusCode]++
		}
		if o.BlockSource != "" {
			s.BlocksBySrc[o.BlockSource]++
		}

		switch o.Skip {
		case "":
			s.Successful++
			s.TotalLinks += o.Links
			s.LinksByMarket[o.Marketplace] += o.Links
		case harvest.SkipTransport, harvest.SkipParse:
			s.TotalErrors++
		case harvest.SkipStatus:
			s.Non200++
		case harvest.SkipNoLinks:
			s.EmptyPages++
		case harvest.SkipSink:
			s.SinkErrors++
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

const textTmpl = `Amazon Search Harvest
---------------------
{{- if .RunID}}
Run:           {{.RunID}}
{{- end}}
{{- if .Output}}
Output:        {{.Output}}
{{- end}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Requests:      {{.TotalRequests}} ({{.Successful}} with links)
Links:         {{.TotalLinks}}
Bytes:         {{.TotalBytes}}
Errors:        {{.TotalErrors}}
Non-200:       {{.Non200}}
Empty Pages:   {{.EmptyPages}}
{{- if .RobotsSkipped}}
Robots Skips:  {{.RobotsSkipped}}
{{- end}}
{{- if .SinkErrors}}
Write Errors:  {{.SinkErrors}}
{{- end}}
{{- if .Interrupted}}
Interrupted:   yes
{{- end}}

Status Codes:
{{- range $code, $count := .StatusCodes}}
  {{$code}}: {{$count}}
{{- else}}
  None
{{- end}}

Blocks:
{{- range $src, $count := .BlocksBySrc}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}

Links By Marketplace:
{{- range $host, $count := .LinksByMarket}}
  {{$host}}: {{$count}}
{{- else}}
  None
{{- end}}
`

var textReport = template.Must(template.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

// Write renders the summary in the named format: "text", "json" or "none".
func Write(w io.Writer, format string, summary Summary) error {
	switch format {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "none":
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
