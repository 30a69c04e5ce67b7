package reaper

import (
	"context"
	"errors"
	"time"

	"databox/internal/domain/tempfile"
	"databox/internal/pkg/logging"
)

// SubmissionStore is the slice of the submission repository the reaper uses.
type SubmissionStore interface {
	DeleteExpiredBefore(ctx context.Context, threshold time.Time) (int64, error)
}

// FileStore is the slice of the staging store the reaper uses.
type FileStore interface {
	ExpiredIDs(ctx context.Context, threshold time.Time) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Config holds the TTLs and cadences for the two sweeps.
type Config struct {
	SubmissionTTL        time.Duration // how long a submission may live (default 48h)
	TempFileTTL          time.Duration // how long an orphaned staged file may live (default 1h)
	SubmissionSweepEvery time.Duration // submission sweep cadence (default 1h)
	TempFileSweepEvery   time.Duration // temp-file sweep cadence (default 10m)
}

func DefaultConfig() Config {
	return Config{
		SubmissionTTL:        48 * time.Hour,
		TempFileTTL:          time.Hour,
		SubmissionSweepEvery: time.Hour,
		TempFileSweepEvery:   10 * time.Minute,
	}
}

// Reaper runs the two expiry sweeps. Both are stateless and idempotent, so
// racing a concurrent finalize only ever results in harmless double
// deletes.
type Reaper struct {
	submissions SubmissionStore
	files       FileStore
	cfg         Config
}

func New(submissions SubmissionStore, files FileStore, cfg Config) *Reaper {
	return &Reaper{submissions: submissions, files: files, cfg: cfg}
}

// RunSubmissionSweep deletes submissions past their TTL, claimed or not:
// a claim older than the TTL was orphaned by a crash mid-finalize.
func (r *Reaper) RunSubmissionSweep(ctx context.Context) error {
	threshold := time.Now().UTC().Add(-r.cfg.SubmissionTTL)
	logging.Debug("submission sweep started", "threshold", threshold)

	deleted, err := r.submissions.DeleteExpiredBefore(ctx, threshold)
	if err != nil {
		logging.Error("submission sweep failed", "err", err)
		return err
	}

	if deleted > 0 {
		logging.Info("removed expired submissions", "count", deleted)
	} else {
		logging.Debug("no expired submissions found")
	}
	return nil
}

// RunTempFileSweep deletes staged files past their TTL. One entry's failure
// never aborts the rest of the sweep, and an entry that vanished between
// the listing and the delete is a no-op.
func (r *Reaper) RunTempFileSweep(ctx context.Context) error {
	threshold := time.Now().UTC().Add(-r.cfg.TempFileTTL)
	logging.Debug("temp file sweep started", "threshold", threshold)

	ids, err := r.files.ExpiredIDs(ctx, threshold)
	if err != nil {
		logging.Error("temp file sweep failed to list entries", "err", err)
		return err
	}

	for _, id := range ids {
		if err := r.files.Delete(ctx, id); err != nil {
			if errors.Is(err, tempfile.ErrFileNotFound) {
				continue // lost a race with finalize or a manual revert
			}
			logging.Warn("failed to remove expired staged file", "id", id, "err", err)
			continue
		}
		logging.Info("removed expired staged file", "id", id)
	}
	return nil
}

// Start launches both sweeps on their own tickers and returns a stop
// channel; closing it (or cancelling ctx) stops both goroutines.
func (r *Reaper) Start(ctx context.Context) chan struct{} {
	stopCh := make(chan struct{})

	go r.loop(ctx, stopCh, r.cfg.SubmissionSweepEvery, "submissions", r.RunSubmissionSweep)
	go r.loop(ctx, stopCh, r.cfg.TempFileSweepEvery, "temp files", r.RunTempFileSweep)

	logging.Info("reaper started",
		"submission_interval", r.cfg.SubmissionSweepEvery,
		"tempfile_interval", r.cfg.TempFileSweepEvery)
	return stopCh
}

func (r *Reaper) loop(ctx context.Context, stopCh chan struct{}, interval time.Duration, name string, sweep func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sweep(ctx); err != nil {
				logging.Error("sweep error", "sweep", name, "err", err)
			}
		case <-stopCh:
			logging.Info("sweep stopped", "sweep", name)
			return
		case <-ctx.Done():
			logging.Info("sweep stopped (context done)", "sweep", name)
			return
		}
	}
}
