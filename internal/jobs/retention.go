package jobs

import (
	"context"
	"fmt"
	"time"

	"SevaDeskSaas/api/allocation"
	"SevaDeskSaas/internal/config"
	"SevaDeskSaas/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

type RetentionConfig struct {
	Schedule      string
	TimeZone      string
	RetentionDays int
	MaxRetries    int
	RetryDelay    time.Duration
}

// NewDefaultRetentionConfig creates a RetentionConfig with defaults from the config package
func NewDefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		Schedule:      config.DefaultRetentionSchedule,
		TimeZone:      config.DefaultTimeZone,
		RetentionDays: config.DefaultRetentionDays,
		MaxRetries:    3,
		RetryDelay:    2 * time.Second,
	}
}

// RetryWithBackoff retries fn with linearly growing delay between attempts.
func RetryWithBackoff(maxRetries int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * delay)
		}
	}
	return err
}

// RunSessionRetention schedules the nightly purge of allocation sessions
// with no activity inside the retention window.
func RunSessionRetention(cfg *RetentionConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultRetentionSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = config.DefaultRetentionDays
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for session retention: %v", err)
	}

	store := allocation.NewStore(db)
	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		err := RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			purged, err := store.PurgeStaleSessions(ctx, cfg.RetentionDays)
			if err != nil {
				return err
			}
			if purged > 0 && logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Session retention purged %d rows older than %d days", purged, cfg.RetentionDays))
			}
			return nil
		})
		if err != nil && logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Session retention failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session retention: %v", err)
	}
	c.Start()
	return nil
}
