package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"databox/internal/config"
	"databox/internal/database"
	"databox/internal/domain/submission"
	"databox/internal/domain/tempfile"
	"databox/internal/mail"
	"databox/internal/middleware"
	"databox/internal/pkg/logging"
	"databox/internal/reaper"
)

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
	if err := database.Migrate(db, &submission.Submission{}); err != nil {
		logging.Fatal("db migrate failed", "err", err)
	}

	fileStore, err := tempfile.NewStore(afero.NewOsFs(), cfg.UploadDir)
	if err != nil {
		logging.Fatal("upload dir setup failed", "err", err)
	}

	mailer, err := buildMailer(cfg)
	if err != nil {
		logging.Fatal("mailer setup failed", "err", err)
	}

	submissionRepo := submission.NewRepository(db)
	submissionService := submission.NewService(submissionRepo, fileStore, mailer)
	submissionHandler := submission.NewHandler(submissionService)
	fileHandler := tempfile.NewHandler(fileStore)

	rp := reaper.New(submissionRepo, fileStore, reaper.Config{
		SubmissionTTL:        cfg.SubmissionTTL,
		TempFileTTL:          cfg.TempFileTTL,
		SubmissionSweepEvery: cfg.SubmissionSweepEvery,
		TempFileSweepEvery:   cfg.TempFileSweepEvery,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopReaper := rp.Start(ctx)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.ErrorLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		submission.RegisterRoutes(v1, submissionHandler)
		tempfile.RegisterRoutes(v1, fileHandler)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		logging.Info("starting server", "addr", cfg.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down")
	close(stopReaper)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("shutdown failed", "err", err)
	}
}

func buildMailer(cfg *config.Config) (mail.Mailer, error) {
	if !cfg.MailConfigured() {
		logging.Warn("SMTP_HOST not set, mail goes to the log only")
		return mail.NewConsoleMailer(cfg.BaseURL), nil
	}

	renderer, err := mail.NewRenderer(cfg.VerificationTemplate, cfg.DeliveryTemplate)
	if err != nil {
		return nil, err
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:                cfg.SMTPHost,
		Port:                cfg.SMTPPort,
		Username:            cfg.SMTPUsername,
		Password:            cfg.SMTPPassword,
		SSL:                 cfg.SMTPSSL,
		From:                cfg.MailFrom,
		Timeout:             cfg.MailTimeout,
		BaseURL:             cfg.BaseURL,
		VerificationSubject: cfg.VerificationSubject,
		DeliverySubject:     cfg.DeliverySubject,
		DeliveryTo:          cfg.DeliveryTo,
	}, renderer), nil
}
