package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr                 = ":8080"
	defaultBaseURL              = "http://localhost:8080"
	defaultDatabaseURL          = "data/databox.sqlite"
	defaultUploadDir            = "uploads/tmp"
	defaultSMTPPort             = "587"
	defaultMailTimeout          = "30s"
	defaultSubmissionTTL        = "48h"
	defaultTempFileTTL          = "1h"
	defaultSubmissionSweepEvery = "1h"
	defaultTempFileSweepEvery   = "10m"

	defaultVerificationSubject = "[Databox] Your Databox submission"
	defaultDeliverySubject     = "[Databox] New documents received"
)

// Config is the full runtime configuration, loaded from the environment
// (with optional .env pickup for local development).
type Config struct {
	AppEnv  string
	Addr    string
	BaseURL string

	DatabaseURL string
	UploadDir   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSSL      bool
	MailFrom     string
	MailTimeout  time.Duration

	VerificationSubject  string
	VerificationTemplate string
	DeliverySubject      string
	DeliveryTemplate     string
	DeliveryTo           string

	SubmissionTTL        time.Duration
	TempFileTTL          time.Duration
	SubmissionSweepEvery time.Duration
	TempFileSweepEvery   time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit env vars always win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Addr = getEnv("APP_ADDR", defaultAddr)
	cfg.BaseURL = strings.TrimRight(getEnv("APP_BASE_URL", defaultBaseURL), "/")
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.UploadDir = getEnv("UPLOAD_DIR", defaultUploadDir)

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	port, err := strconv.Atoi(getEnv("SMTP_PORT", defaultSMTPPort))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	cfg.SMTPPort = port
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPSSL, err = parseBoolEnv("SMTP_SSL", "true")
	if err != nil {
		return nil, err
	}
	cfg.MailFrom = getEnv("MAIL_FROM", cfg.SMTPUsername)

	cfg.VerificationSubject = getEnv("VERIFICATION_MAIL_SUBJECT", defaultVerificationSubject)
	cfg.VerificationTemplate = os.Getenv("VERIFICATION_MAIL_TEMPLATE")
	cfg.DeliverySubject = getEnv("DELIVERY_MAIL_SUBJECT", defaultDeliverySubject)
	cfg.DeliveryTemplate = os.Getenv("DELIVERY_MAIL_TEMPLATE")
	cfg.DeliveryTo = getEnv("DELIVERY_MAIL_TO", cfg.MailFrom)

	cfg.MailTimeout, err = parseDurationEnv("MAIL_TIMEOUT", defaultMailTimeout)
	if err != nil {
		return nil, err
	}
	cfg.SubmissionTTL, err = parseDurationEnv("SUBMISSION_TTL", defaultSubmissionTTL)
	if err != nil {
		return nil, err
	}
	cfg.TempFileTTL, err = parseDurationEnv("TEMPFILE_TTL", defaultTempFileTTL)
	if err != nil {
		return nil, err
	}
	cfg.SubmissionSweepEvery, err = parseDurationEnv("SUBMISSION_SWEEP_INTERVAL", defaultSubmissionSweepEvery)
	if err != nil {
		return nil, err
	}
	cfg.TempFileSweepEvery, err = parseDurationEnv("TEMPFILE_SWEEP_INTERVAL", defaultTempFileSweepEvery)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// MailConfigured reports whether an SMTP host is set; without one the app
// falls back to the console mailer.
func (c *Config) MailConfigured() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func parseBoolEnv(key, fallback string) (bool, error) {
	raw := getEnv(key, fallback)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q: %w", key, raw, err)
	}
	return b, nil
}
