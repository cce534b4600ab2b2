package sweep

import (
	"fmt"
	"log"
	"time"

	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/gorm"
)

// Service flips listings whose expiry timestamp has passed to the terminal
// Expired status. Expiry never hard-deletes; only an explicit delete does.
type Service struct {
	db *gorm.DB
}

// NewService creates a new sweep service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Config holds configuration for a sweep run
type Config struct {
	BatchLimit int  // Maximum number of listings to expire in one run (safety limit)
	DryRun     bool // If true, only log what would be expired
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BatchLimit: 5000,
		DryRun:     false,
	}
}

// Result holds the result of a sweep run
type Result struct {
	TargetCount  int       `json:"target_count"`  // Listings eligible for expiry
	ExpiredCount int       `json:"expired_count"` // Listings actually expired
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// FindExpirable returns ids of valid listings whose expiry has passed.
func (s *Service) FindExpirable(now time.Time, limit int) ([]uint, error) {
	var ids []uint
	q := s.db.Model(&models.Listing{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.ListingStatusValid, now)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find expirable listings: %w", err)
	}
	return ids, nil
}

// Run executes one sweep pass.
func (s *Service) Run(config Config) (*Result, error) {
	result := &Result{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	ids, err := s.FindExpirable(result.ExecutedAt, config.BatchLimit)
	if err != nil {
		return nil, err
	}
	result.TargetCount = len(ids)

	if result.TargetCount == 0 {
		log.Println("Sweep: No listings past expiry")
		return result, nil
	}

	if config.DryRun {
		log.Printf("Sweep: [DRY-RUN] Would expire %d listings", result.TargetCount)
		result.ExpiredCount = result.TargetCount
		return result, nil
	}

	err = s.db.Model(&models.Listing{}).
		Where("id IN ?", ids).
		Update("status", models.ListingStatusExpired).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expire listings: %w", err)
	}

	result.ExpiredCount = result.TargetCount
	log.Printf("Sweep: Expired %d listings", result.ExpiredCount)
	return result, nil
}

// Stats returns listing counts by status plus the currently expirable count.
func (s *Service) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	byStatus := make(map[string]int64)
	for _, status := range []models.ListingStatus{
		models.ListingStatusPending,
		models.ListingStatusValid,
		models.ListingStatusRejected,
		models.ListingStatusExpired,
	} {
		var count int64
		if err := s.db.Model(&models.Listing{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, err
		}
		byStatus[string(status)] = count
	}
	stats["by_status"] = byStatus

	expirable, err := s.FindExpirable(time.Now(), 0)
	if err != nil {
		return nil, err
	}
	stats["past_expiry"] = len(expirable)

	return stats, nil
}
