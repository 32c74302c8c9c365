package output

import "statarchive/internal/validate"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - dataset.started
// - resource.downloaded
// - check.result
// - dataset.finished
// - run.finished
//
// JSON mode remains an aggregate of validate.Result values.
type Event struct {
	Type     string `json:"type"`
	Dataset  string `json:"dataset,omitempty"`
	Resource string `json:"resource,omitempty"`
	*validate.Result
	Datasets int    `json:"datasets,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromResult(dataset string, r validate.Result) Event {
	return Event{Type: "check.result", Dataset: dataset, Result: &r}
}

// CheckResult is the pairing of a dataset with one validation result, used
// by sinks that need the dataset name alongside the result.
type CheckResult struct {
	Dataset string          `json:"dataset"`
	Result  validate.Result `json:"result"`
}
