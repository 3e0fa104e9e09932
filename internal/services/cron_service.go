package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stayhive/hotel-booking-backend/internal/config"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron         *cron.Cron
	lifecycleSvc *LifecycleService
	cfg          config.SchedulerConfig
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(lifecycleSvc *LifecycleService, cfg config.SchedulerConfig, logger *logrus.Logger) *CronService {
	// Cron format with seconds: second minute hour day month weekday
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:         c,
		lifecycleSvc: lifecycleSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// No-show sweep, daily at midnight by default
	_, err := s.cron.AddFunc(s.cfg.NoShowSweepSpec, s.noShowSweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule no-show sweep: %w", err)
	}
	s.logger.WithField("spec", s.cfg.NoShowSweepSpec).Info("Scheduled no-show sweep")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) noShowSweepJob() {
	startTime := time.Now()
	s.logger.Info("No-show sweep started")

	result, err := s.lifecycleSvc.SweepNoShows(context.Background(), time.Now().UTC())
	if err != nil {
		s.logger.WithError(err).Error("No-show sweep failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"examined": result.Examined,
		"marked":   result.Marked,
		"failed":   result.Failed,
		"duration": time.Since(startTime).String(),
	}).Info("No-show sweep completed")
}
