package rank

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

func addListing(t *testing.T, db *gorm.DB, categoryID uint) *models.Listing {
	t.Helper()
	var l models.Listing
	err := db.Transaction(func(tx *gorm.DB) error {
		next, err := NextRank(tx, categoryID)
		if err != nil {
			return err
		}
		l = models.Listing{
			CategoryID:  categoryID,
			OwnerID:     1,
			Title:       "t",
			Status:      models.ListingStatusValid,
			PublishedAt: time.Now(),
			Rank:        next,
		}
		return tx.Create(&l).Error
	})
	if err != nil {
		t.Fatalf("addListing: %v", err)
	}
	return &l
}

func ranksByID(t *testing.T, db *gorm.DB, categoryID uint) map[uint]int {
	t.Helper()
	var rows []models.Listing
	if err := db.Where("category_id = ?", categoryID).Find(&rows).Error; err != nil {
		t.Fatalf("load listings: %v", err)
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Rank
	}
	return out
}

func assertDense(t *testing.T, ranks map[uint]int) {
	t.Helper()
	seen := make(map[int]bool, len(ranks))
	for id, r := range ranks {
		if r < 1 || r > len(ranks) {
			t.Errorf("listing %d has rank %d outside 1..%d", id, r, len(ranks))
		}
		if seen[r] {
			t.Errorf("duplicate rank %d", r)
		}
		seen[r] = true
	}
}

func TestNextRankSequence(t *testing.T) {
	db := openTestDB(t)

	a := addListing(t, db, 1)
	b := addListing(t, db, 1)
	c := addListing(t, db, 1)
	other := addListing(t, db, 2) // separate category has its own sequence

	if a.Rank != 1 || b.Rank != 2 || c.Rank != 3 {
		t.Errorf("ranks = %d,%d,%d, want 1,2,3", a.Rank, b.Rank, c.Rank)
	}
	if other.Rank != 1 {
		t.Errorf("other category rank = %d, want 1", other.Rank)
	}
}

func TestPromoteToTop(t *testing.T) {
	db := openTestDB(t)

	a := addListing(t, db, 1)
	b := addListing(t, db, 1)
	c := addListing(t, db, 1)

	var promoted bool
	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := PromoteToTop(tx, 1, c.ID)
		promoted = ok
		return err
	})
	if err != nil {
		t.Fatalf("PromoteToTop: %v", err)
	}
	if !promoted {
		t.Fatal("promoted = false")
	}

	ranks := ranksByID(t, db, 1)
	assertDense(t, ranks)
	if ranks[c.ID] != 1 {
		t.Errorf("promoted listing rank = %d, want 1", ranks[c.ID])
	}
	if ranks[a.ID] != 2 || ranks[b.ID] != 3 {
		t.Errorf("sibling ranks = %d,%d, want 2,3", ranks[a.ID], ranks[b.ID])
	}
}

func TestPromoteToTopRepeated(t *testing.T) {
	db := openTestDB(t)

	a := addListing(t, db, 1)
	b := addListing(t, db, 1)

	promote := func(id uint) {
		t.Helper()
		err := db.Transaction(func(tx *gorm.DB) error {
			ok, err := PromoteToTop(tx, 1, id)
			if err == nil && !ok {
				t.Errorf("promote %d: not found", id)
			}
			return err
		})
		if err != nil {
			t.Fatalf("promote %d: %v", id, err)
		}
	}

	promote(b.ID)
	promote(a.ID)
	promote(b.ID)

	ranks := ranksByID(t, db, 1)
	assertDense(t, ranks)
	if ranks[b.ID] != 1 || ranks[a.ID] != 2 {
		t.Errorf("ranks = b:%d a:%d, want b:1 a:2", ranks[b.ID], ranks[a.ID])
	}
}

func TestPromoteToTopOutsideCategory(t *testing.T) {
	db := openTestDB(t)

	a := addListing(t, db, 1)
	stranger := addListing(t, db, 2)

	var promoted bool
	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := PromoteToTop(tx, 1, stranger.ID)
		promoted = ok
		return err
	})
	if err != nil {
		t.Fatalf("PromoteToTop: %v", err)
	}
	if promoted {
		t.Error("promoted a listing from another category")
	}

	// Nothing moved in either category.
	if ranksByID(t, db, 1)[a.ID] != 1 {
		t.Error("category 1 mutated")
	}
	if ranksByID(t, db, 2)[stranger.ID] != 1 {
		t.Error("category 2 mutated")
	}
}
