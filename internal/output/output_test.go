package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"statarchive/internal/validate"
)

func passResult(name string) validate.Result {
	return validate.Result{Name: name, Success: true, RequiredForRunSuccess: true}
}

func failResult(name string, required bool) validate.Result {
	return validate.Result{
		Name:                  name,
		Success:               false,
		Notes:                 []string{"something drifted"},
		RequiredForRunSuccess: required,
	}
}

func TestConsoleSinkText(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text")

	if err := sink.Write(Event{Type: "dataset.started", Dataset: "mecs"}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(CheckResult{Dataset: "mecs", Result: failResult("Dataset file size test", true)}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(CheckResult{Dataset: "mecs", Result: failResult("Validate data continuity", false)}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"==> mecs", "PASS", "FAIL", "WARN", "something drifted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleSinkJSONAggregate(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json")

	sink.Write(Event{Type: "run.started"})
	sink.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")})
	sink.Write(CheckResult{Dataset: "mecs", Result: failResult("Dataset file size test", true)})
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	var results []CheckResult
	if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (lifecycle events excluded)", len(results))
	}
	if results[1].Result.Success {
		t.Error("failure result lost its status")
	}
}

func TestConsoleSinkNDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "ndjson")

	sink.Write(Event{Type: "run.started", RunID: "run-1", Datasets: 1})
	sink.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")})
	sink.Write(Event{Type: "run.finished", RunID: "run-1", ExitCode: 0})
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	var types []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		types = append(types, ev.Type)
	}
	want := []string{"run.started", "check.result", "run.finished"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestFileSinkNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	sink, err := NewFileSink(path, "")
	if err != nil {
		t.Fatal(err)
	}
	sink.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")})
	sink.Write(CheckResult{Dataset: "mecs", Result: failResult("Dataset file size test", true)})
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), raw)
	}
}

func TestFileSinkJSONInferred(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	sink, err := NewFileSink(path, "")
	if err != nil {
		t.Fatal(err)
	}
	sink.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")})
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var results []CheckResult
	if err := json.Unmarshal(raw, &results); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestFileSinkRejectsUnknownExtension(t *testing.T) {
	if _, err := NewFileSink(filepath.Join(t.TempDir(), "run.txt"), ""); err == nil {
		t.Error("unknown extension accepted without an explicit format")
	}
	if _, err := NewFileSink(filepath.Join(t.TempDir(), "run.txt"), "csv"); err == nil {
		t.Error("unsupported format accepted")
	}
	if _, err := NewFileSink("", "json"); err == nil {
		t.Error("empty path accepted")
	}
}

func TestManagerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := NewManager()
	if err := m.AddSink(NewConsoleSink(&a, "ndjson")); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSink(NewConsoleSink(&b, "ndjson")); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSink(nil); err == nil {
		t.Error("nil sink accepted")
	}

	if err := m.Write(CheckResult{Dataset: "mecs", Result: passResult("Missing file test")}); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("a sink received no output")
	}
}
