package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	passLabel = color.New(color.FgGreen).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	dimText   = color.New(color.Faint).SprintFunc()
)

type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	results []CheckResult // for JSON array output
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(CheckResult); ok {
			s.results = append(s.results, r)
		}
		// Lifecycle events are ignored in JSON aggregate mode.
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			return encoder.Encode(t)
		case CheckResult:
			return encoder.Encode(eventFromResult(t.Dataset, t.Result))
		default:
			return nil
		}
	}
	return s.writeText(v)
}

func (s *ConsoleSink) writeText(v any) error {
	switch t := v.(type) {
	case Event:
		switch t.Type {
		case "dataset.started":
			_, err := fmt.Fprintf(s.writer, "==> %s\n", t.Dataset)
			return err
		case "resource.downloaded":
			_, err := fmt.Fprintf(s.writer, "    %s %s\n", dimText("downloaded"), t.Resource)
			return err
		case "dataset.finished":
			_, err := fmt.Fprintln(s.writer)
			return err
		}
		return nil
	case CheckResult:
		r := t.Result
		label := passLabel("PASS")
		if !r.Success {
			if r.RequiredForRunSuccess {
				label = failLabel("FAIL")
			} else {
				label = warnLabel("WARN")
			}
		}
		if _, err := fmt.Fprintf(s.writer, "  %s  %s\n", label, r.Name); err != nil {
			return err
		}
		for _, note := range r.Notes {
			if _, err := fmt.Fprintf(s.writer, "        %s\n", dimText(note)); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" {
		return nil
	}
	encoder := json.NewEncoder(s.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.results)
}

// Summary renders a one-line run summary for text mode.
func Summary(results int, failures int) string {
	if failures == 0 {
		return fmt.Sprintf("%d checks, all passed", results)
	}
	plural := ""
	if failures != 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d checks, %d failure%s", results, failures, plural)
}
