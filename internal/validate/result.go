package validate

// Result is the outcome of one validation check. Checks never fail by
// returning an error; they always produce a Result and the caller decides
// severity via RequiredForRunSuccess.
type Result struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Success     bool     `json:"success"`
	Notes       []string `json:"notes,omitempty"`

	// RequiredForRunSuccess marks the check as fatal: a failing required
	// check blocks publication of the candidate archive. Non-required
	// failures are advisory and only reported.
	RequiredForRunSuccess bool `json:"required_for_run_success"`
}

// RunSucceeded reports whether a run may publish: true iff no required check
// failed. Advisory failures never block a run.
func RunSucceeded(results []Result) bool {
	for _, r := range results {
		if r.RequiredForRunSuccess && !r.Success {
			return false
		}
	}
	return true
}

// Failures returns the failing results, required or not.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
