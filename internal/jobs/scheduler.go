package jobs

import (
	"log"

	"SevaDeskSaas/internal/logger"
	"SevaDeskSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	retentionConfig := NewDefaultRetentionConfig()

	// Override from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["retention_schedule"].(string); ok && schedule != "" {
			retentionConfig.Schedule = schedule
		}
		if days, ok := s.config["retention_days"].(int); ok && days > 0 {
			retentionConfig.RetentionDays = days
		}
		if f, ok := s.config["retention_days"].(float64); ok && f > 0 {
			retentionConfig.RetentionDays = int(f)
		}
	}

	if err := RunSessionRetention(retentionConfig, s.db); err != nil {
		return err
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with session retention job")
	}
	log.Println("Cron service started, session retention scheduled")
	return nil
}

func (s *CronService) Stop() error {
	// Cron entries are managed inside RunSessionRetention
	log.Println("Cron service stopped.")
	return nil
}
