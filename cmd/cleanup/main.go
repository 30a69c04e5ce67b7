package main

import (
	"context"

	"github.com/spf13/afero"

	"databox/internal/config"
	"databox/internal/database"
	"databox/internal/domain/submission"
	"databox/internal/domain/tempfile"
	"databox/internal/pkg/logging"
	"databox/internal/reaper"
)

// One-shot sweep runner for deployments that prefer external cron over the
// in-process reaper.
func main() {
	logging.CreateLogger()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "err", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("db connect failed", "err", err)
	}

	fileStore, err := tempfile.NewStore(afero.NewOsFs(), cfg.UploadDir)
	if err != nil {
		logging.Fatal("upload dir setup failed", "err", err)
	}

	rp := reaper.New(submission.NewRepository(db), fileStore, reaper.Config{
		SubmissionTTL: cfg.SubmissionTTL,
		TempFileTTL:   cfg.TempFileTTL,
	})

	ctx := context.Background()
	if err := rp.RunSubmissionSweep(ctx); err != nil {
		logging.Fatal("submission sweep failed", "err", err)
	}
	if err := rp.RunTempFileSweep(ctx); err != nil {
		logging.Fatal("temp file sweep failed", "err", err)
	}

	logging.Info("cleanup completed")
}
