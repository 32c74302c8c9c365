package driver

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"statarchive/internal/manifest"
	"statarchive/internal/validate"
)

// PendingResource is a deferred unit of download work. Running it fetches
// exactly one resource and returns its record, or fails. Link-discovery
// collaborators produce these without starting them; the driver owns
// scheduling.
type PendingResource func(ctx context.Context) (manifest.ResourceRecord, error)

// FetchResult is one completed download: the resource's display name (its
// file name) and the record describing it.
type FetchResult struct {
	Name   string
	Record manifest.ResourceRecord
}

// Driver executes pending downloads with a bounded concurrency ceiling and
// streams completed records back in completion order.
type Driver struct {
	limit     int
	validator *validate.Validator
	workdir   *Workdir
	rotate    bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithRotatingWorkdir makes the driver allocate a fresh directory from w for
// every batch after the first, so the final batch never leaves an empty
// unused directory behind.
func WithRotatingWorkdir(w *Workdir) Option {
	return func(d *Driver) {
		d.workdir = w
		d.rotate = true
	}
}

// New builds a Driver. limit is the concurrency ceiling: 0 runs every task in
// one unbounded batch, a positive value partitions tasks into consecutive
// batches of that size.
func New(validator *validate.Validator, limit int, opts ...Option) (*Driver, error) {
	if validator == nil {
		return nil, errors.New("driver: validator is nil")
	}
	if limit < 0 {
		return nil, fmt.Errorf("driver: concurrency limit must be >= 0, got %d", limit)
	}
	d := &Driver{limit: limit, validator: validator}
	for _, apply := range opts {
		if apply != nil {
			apply(d)
		}
	}
	return d, nil
}

// DownloadAll executes the pending downloads and streams results.
//
// Channel semantics:
//   - Within a batch, results arrive in completion order, not submission
//     order. Consumers must not assume the nth result matches the nth task.
//   - Batches are strictly sequential: no task of batch N+1 starts before
//     batch N has fully completed.
//   - A single failing task aborts the whole run; the error channel carries
//     the failure and the results channel closes early. There is no partial
//     continuation and no driver-level retry.
//   - Both channels are always closed.
//
// After each task completes the driver synchronously runs the file-level
// validators against the downloaded artifact and records their results in the
// validator's run log before yielding the record.
func (d *Driver) DownloadAll(ctx context.Context, pending iter.Seq[PendingResource]) (<-chan FetchResult, <-chan error) {
	resultsCh := make(chan FetchResult)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		if ctx == nil {
			trySendErr(errors.New("context is nil"))
			return
		}
		if pending == nil {
			trySendErr(errors.New("pending resource sequence is nil"))
			return
		}

		var batch []PendingResource
		ranBatch := false
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			// Rotate lazily, only when another batch actually runs.
			if ranBatch && d.rotate && d.workdir != nil {
				if _, err := d.workdir.Rotate(); err != nil {
					trySendErr(err)
					return false
				}
			}
			if err := d.runBatch(ctx, batch, resultsCh); err != nil {
				trySendErr(err)
				return false
			}
			batch = batch[:0]
			ranBatch = true
			return true
		}

		for task := range pending {
			if ctx.Err() != nil {
				trySendErr(ctx.Err())
				return
			}
			batch = append(batch, task)
			if d.limit > 0 && len(batch) == d.limit {
				if !flush() {
					return
				}
			}
		}
		if !flush() {
			return
		}
		trySendErr(ctx.Err())
	}()

	return resultsCh, errCh
}

// runBatch runs one batch of tasks concurrently and forwards completed
// records. The first task error cancels the batch's sibling context and is
// returned once all workers have stopped.
func (d *Driver) runBatch(ctx context.Context, batch []PendingResource, resultsCh chan<- FetchResult) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, task := range batch {
		g.Go(func() error {
			record, err := task(gctx)
			if err != nil {
				return fmt.Errorf("download resource: %w", err)
			}

			// File-level validation runs before the record is surfaced so
			// the run log is complete by the time the caller sees the result.
			d.validator.FileChecks(record)

			result := FetchResult{
				Name:   filepath.Base(record.LocalPath),
				Record: record,
			}
			select {
			case resultsCh <- result:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	return g.Wait()
}
