package scheduler

import (
	"fmt"
	"log"

	"github.com/DwamTech/nas-masr-sub000/internal/config"
	"github.com/DwamTech/nas-masr-sub000/internal/sweep"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler runs the daily expiry sweep.
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	sweep     *sweep.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *gorm.DB, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		sweep:  sweep.NewService(db),
		config: cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Sweep.Enabled {
		log.Println("Scheduler: Expiry sweep is disabled in configuration")
		return nil
	}

	// Parse daily run time (HH:MM format in config)
	cronSpec := s.parseDailyRunTime(s.config.Sweep.RunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting expiry sweep...")
		if _, err := s.runSweep(); err != nil {
			log.Printf("Scheduler: Expiry sweep failed: %v", err)
		} else {
			log.Println("Scheduler: Expiry sweep completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily sweep at %s (cron: %s)", s.config.Sweep.RunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

func (s *Scheduler) runSweep() (*sweep.Result, error) {
	cfg := sweep.DefaultConfig()
	if s.config.Sweep.BatchLimit > 0 {
		cfg.BatchLimit = s.config.Sweep.BatchLimit
	}
	return s.sweep.Run(cfg)
}

// RunNow immediately executes the sweep (for manual trigger)
func (s *Scheduler) RunNow() (*sweep.Result, error) {
	log.Println("Scheduler: Manual trigger - starting expiry sweep...")
	return s.runSweep()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
