package sweep

import (
	"testing"
	"time"

	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Listing{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedListing(t *testing.T, db *gorm.DB, status models.ListingStatus, expiresAt *time.Time) *models.Listing {
	t.Helper()
	l := models.Listing{
		CategoryID:  1,
		OwnerID:     1,
		Title:       "t",
		Status:      models.ListingStatusValid,
		PublishedAt: time.Now(),
		ExpiresAt:   expiresAt,
		Rank:        1,
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatal(err)
	}
	if status != models.ListingStatusValid {
		if err := db.Model(&l).Update("status", status).Error; err != nil {
			t.Fatal(err)
		}
		l.Status = status
	}
	return &l
}

func TestRunExpiresOnlyEligible(t *testing.T) {
	db := openTestDB(t)
	s := NewService(db)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired := seedListing(t, db, models.ListingStatusValid, &past)
	fresh := seedListing(t, db, models.ListingStatusValid, &future)
	open := seedListing(t, db, models.ListingStatusValid, nil)
	pending := seedListing(t, db, models.ListingStatusPending, &past)
	rejected := seedListing(t, db, models.ListingStatusRejected, &past)

	result, err := s.Run(DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TargetCount != 1 || result.ExpiredCount != 1 {
		t.Errorf("result = %+v, want 1 target / 1 expired", result)
	}

	status := func(id uint) models.ListingStatus {
		var l models.Listing
		db.First(&l, id)
		return l.Status
	}
	if status(expired.ID) != models.ListingStatusExpired {
		t.Error("past-expiry valid listing not expired")
	}
	if status(fresh.ID) != models.ListingStatusValid {
		t.Error("future-expiry listing touched")
	}
	if status(open.ID) != models.ListingStatusValid {
		t.Error("no-expiry listing touched")
	}
	if status(pending.ID) != models.ListingStatusPending {
		t.Error("pending listing touched")
	}
	if status(rejected.ID) != models.ListingStatusRejected {
		t.Error("rejected listing touched")
	}
}

func TestRunDryRun(t *testing.T) {
	db := openTestDB(t)
	s := NewService(db)

	past := time.Now().Add(-time.Hour)
	l := seedListing(t, db, models.ListingStatusValid, &past)

	cfg := DefaultConfig()
	cfg.DryRun = true
	result, err := s.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TargetCount != 1 || !result.DryRun {
		t.Errorf("result = %+v", result)
	}

	var reloaded models.Listing
	db.First(&reloaded, l.ID)
	if reloaded.Status != models.ListingStatusValid {
		t.Error("dry run mutated status")
	}
}

func TestRunBatchLimit(t *testing.T) {
	db := openTestDB(t)
	s := NewService(db)

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedListing(t, db, models.ListingStatusValid, &past)
	}

	result, err := s.Run(Config{BatchLimit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExpiredCount != 2 {
		t.Errorf("ExpiredCount = %d, want 2", result.ExpiredCount)
	}

	var remaining int64
	db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusValid).Count(&remaining)
	if remaining != 3 {
		t.Errorf("remaining valid = %d, want 3", remaining)
	}
}

func TestStats(t *testing.T) {
	db := openTestDB(t)
	s := NewService(db)

	past := time.Now().Add(-time.Hour)
	seedListing(t, db, models.ListingStatusValid, &past)
	seedListing(t, db, models.ListingStatusValid, nil)
	seedListing(t, db, models.ListingStatusPending, nil)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	byStatus := stats["by_status"].(map[string]int64)
	if byStatus["valid"] != 2 || byStatus["pending"] != 1 {
		t.Errorf("by_status = %v", byStatus)
	}
	if stats["past_expiry"] != 1 {
		t.Errorf("past_expiry = %v", stats["past_expiry"])
	}
}
