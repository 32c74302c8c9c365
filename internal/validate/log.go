package validate

import "sync"

// Log accumulates file-level validation results over one archive run. The
// fetch driver appends to it from concurrent workers, so appends are
// mutex-guarded.
type Log struct {
	mu      sync.Mutex
	results []Result
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(results ...Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, results...)
}

// Results returns a copy of the accumulated results in append order.
func (l *Log) Results() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Result, len(l.results))
	copy(out, l.results)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}
