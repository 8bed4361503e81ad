package reports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/agentgpt/src/agents/core"
)

// ErrUnsupportedFormat is returned for export formats other than json, csv and txt.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	notFoundText = "Error: Agent not found"
	stampLayout  = "20060102_150405"
	bannerLayout = "2006-01-02 15:04:05"
)

// Format selects an export renderer.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// ParseFormat accepts json, csv or txt in any case.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatCSV, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// MediaType returns the HTTP content type of the format.
func (f Format) MediaType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain"
	}
}

// Extension returns the filename extension without the dot.
func (f Format) Extension() string { return string(f) }

// Options gates which sections an export contains. The summary is always present.
type Options struct {
	IncludeConfig bool `json:"include_config"`
	IncludeTasks  bool `json:"include_tasks"`
	IncludeLogs   bool `json:"include_logs"`
}

// AllSections includes config, tasks and logs.
func AllSections() Options {
	return Options{IncludeConfig: true, IncludeTasks: true, IncludeLogs: true}
}

// Export is a rendered snapshot ready to be downloaded.
type Export struct {
	Content   string
	MediaType string
	Filename  string
}

// Exporter renders stored agents. It never mutates the store.
type Exporter struct {
	store core.Store
	now   func() time.Time
}

// ExporterOption customizes an Exporter.
type ExporterOption func(*Exporter)

// WithClock overrides the time source used for banners, timestamps and filenames.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// NewExporter returns an Exporter reading from store.
func NewExporter(store core.Store, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export renders agent id in format. Unknown agents render an in-band error
// document rather than failing; only an unsupported format returns an error.
func (e *Exporter) Export(id string, format Format, opts Options) (Export, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return Export{}, err
	}
	at := e.now().UTC()

	agent, lookupErr := e.store.Get(id)
	if lookupErr != nil {
		agent = nil
	}

	var (
		content string
		err     error
	)
	switch format {
	case FormatJSON:
		content, err = renderJSON(agent, opts, at)
	case FormatCSV:
		content, err = renderCSV(agent, opts, at)
	case FormatTXT:
		content = renderText(agent, opts, at)
	}
	if err != nil {
		return Export{}, fmt.Errorf("render %s export: %w", format, err)
	}

	return Export{
		Content:   content,
		MediaType: format.MediaType(),
		Filename:  Filename(agent, format, at),
	}, nil
}

// Filename builds "{name}_export_{YYYYMMDD_HHMMSS}.{ext}" with the name
// lowercased and spaces replaced by underscores.
func Filename(agent *core.Agent, format Format, at time.Time) string {
	name := "agent"
	if agent != nil {
		name = strings.ToLower(strings.ReplaceAll(agent.Config.Name, " ", "_"))
	}
	return fmt.Sprintf("%s_export_%s.%s", name, at.UTC().Format(stampLayout), format.Extension())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
