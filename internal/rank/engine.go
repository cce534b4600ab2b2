package rank

import (
	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rank is a dense total order per category: position 1 is the top slot and
// new listings append after the current maximum. Both operations take the
// category-scoped row locks and MUST run inside the caller's transaction so
// the assigned position commits together with the listing row.

// forUpdate adds FOR UPDATE where the engine supports it. sqlite (tests) is
// single-writer and rejects the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// NextRank returns max(rank in category) + 1, or 1 for an empty category,
// holding the lock on the category's top row until the transaction ends.
func NextRank(tx *gorm.DB, categoryID uint) (int, error) {
	var top models.Listing
	err := forUpdate(tx).
		Where("category_id = ?", categoryID).
		Order("rank_order DESC").
		First(&top).Error
	if err == gorm.ErrRecordNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return top.Rank + 1, nil
}

// PromoteToTop shifts every sibling's position down by one and puts the
// target at position 1. Returns false without mutating anything when the
// target does not exist in the category. O(n) in category size by intent:
// the order stays dense and "who's first" stays unambiguous.
func PromoteToTop(tx *gorm.DB, categoryID, listingID uint) (bool, error) {
	var ids []uint
	if err := forUpdate(tx).
		Model(&models.Listing{}).
		Where("category_id = ?", categoryID).
		Pluck("id", &ids).Error; err != nil {
		return false, err
	}

	found := false
	for _, id := range ids {
		if id == listingID {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	if err := tx.Model(&models.Listing{}).
		Where("category_id = ? AND id <> ?", categoryID, listingID).
		UpdateColumn("rank_order", gorm.Expr("rank_order + 1")).Error; err != nil {
		return false, err
	}

	if err := tx.Model(&models.Listing{}).
		Where("id = ?", listingID).
		UpdateColumn("rank_order", 1).Error; err != nil {
		return false, err
	}

	return true, nil
}
