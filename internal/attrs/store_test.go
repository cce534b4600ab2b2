package attrs

import (
	"testing"

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
	if err := db.AutoMigrate(&models.ListingAttribute{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func loadRow(t *testing.T, db *gorm.DB, listingID uint, key string) *models.ListingAttribute {
	t.Helper()
	var row models.ListingAttribute
	err := db.Where("listing_id = ? AND attr_key = ?", listingID, key).First(&row).Error
	if err != nil {
		t.Fatalf("load row %d/%s: %v", listingID, key, err)
	}
	return &row
}

func populatedColumns(a *models.ListingAttribute) int {
	n := 0
	if a.ValueInt != nil {
		n++
	}
	if a.ValueDecimal != nil {
		n++
	}
	if a.ValueBool != nil {
		n++
	}
	if a.ValueString != nil {
		n++
	}
	if len(a.ValueJSON) > 0 {
		n++
	}
	if a.ValueDate != nil {
		n++
	}
	return n
}

func TestUpsertTypedColumns(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	cases := []struct {
		key      string
		raw      interface{}
		declared models.FieldType
		check    func(t *testing.T, row *models.ListingAttribute)
	}{
		{"year", "2020", models.FieldTypeInt, func(t *testing.T, row *models.ListingAttribute) {
			if row.ValueInt == nil || *row.ValueInt != 2020 {
				t.Errorf("value_int = %v", row.ValueInt)
			}
		}},
		{"area", 120.5, models.FieldTypeDecimal, func(t *testing.T, row *models.ListingAttribute) {
			if row.ValueDecimal == nil || *row.ValueDecimal != 120.5 {
				t.Errorf("value_decimal = %v", row.ValueDecimal)
			}
		}},
		{"furnished", "نعم", models.FieldTypeBool, func(t *testing.T, row *models.ListingAttribute) {
			if row.ValueBool == nil || !*row.ValueBool {
				t.Errorf("value_bool = %v", row.ValueBool)
			}
		}},
		{"fuel_type", "بنزين", models.FieldTypeString, func(t *testing.T, row *models.ListingAttribute) {
			if row.ValueString == nil || *row.ValueString != "بنزين" {
				t.Errorf("value_string = %v", row.ValueString)
			}
		}},
		{"inspection_date", "2026-01-15", models.FieldTypeDate, func(t *testing.T, row *models.ListingAttribute) {
			if row.ValueDate == nil || *row.ValueDate != "2026-01-15" {
				t.Errorf("value_date = %v", row.ValueDate)
			}
		}},
		{"extras", map[string]interface{}{"sunroof": true}, models.FieldTypeJSON, func(t *testing.T, row *models.ListingAttribute) {
			if len(row.ValueJSON) == 0 {
				t.Error("value_json empty")
			}
		}},
	}

	for _, c := range cases {
		if err := s.Upsert(1, c.key, c.raw, c.declared); err != nil {
			t.Fatalf("Upsert(%s): %v", c.key, err)
		}
		row := loadRow(t, db, 1, c.key)
		if row.Type != c.declared {
			t.Errorf("%s: type = %q, want %q", c.key, row.Type, c.declared)
		}
		if n := populatedColumns(row); n != 1 {
			t.Errorf("%s: %d columns populated, want exactly 1", c.key, n)
		}
		c.check(t, row)
	}
}

func TestUpsertTypeChangeKeepsSingleColumn(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	if err := s.Upsert(1, "mileage", "90000", models.FieldTypeString); err != nil {
		t.Fatalf("Upsert string: %v", err)
	}
	// Schema later redeclares the field as int.
	if err := s.Upsert(1, "mileage", "90000", models.FieldTypeInt); err != nil {
		t.Fatalf("Upsert int: %v", err)
	}

	row := loadRow(t, db, 1, "mileage")
	if n := populatedColumns(row); n != 1 {
		t.Errorf("%d columns populated after type change, want 1", n)
	}
	if row.ValueInt == nil || *row.ValueInt != 90000 {
		t.Errorf("value_int = %v", row.ValueInt)
	}
	if row.ValueString != nil {
		t.Errorf("stale value_string = %q", *row.ValueString)
	}
}

func TestUpsertEmptyDeletesRow(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	if err := s.Upsert(1, "year", "2020", models.FieldTypeInt); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(1, "year", "  ", models.FieldTypeInt); err != nil {
		t.Fatalf("Upsert empty: %v", err)
	}

	var count int64
	db.Model(&models.ListingAttribute{}).Where("listing_id = ?", 1).Count(&count)
	if count != 0 {
		t.Errorf("row count = %d, want 0", count)
	}

	// Deleting a row that never existed is not an error.
	if err := s.Upsert(1, "year", nil, models.FieldTypeInt); err != nil {
		t.Fatalf("Upsert nil on missing row: %v", err)
	}
}

func TestSyncSkipsUndeclaredKeys(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	types := map[string]models.FieldType{"year": models.FieldTypeInt}
	payload := map[string]interface{}{
		"year":    2021,
		"bogus":   "value",
		"another": 5,
	}
	if err := s.Sync(7, types, payload); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	var count int64
	db.Model(&models.ListingAttribute{}).Where("listing_id = ?", 7).Count(&count)
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestReadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)

	if err := s.Upsert(3, "year", 2019, models.FieldTypeInt); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(3, "color", "أحمر", models.FieldTypeString); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got["year"] != int64(2019) {
		t.Errorf("year = %v (%T)", got["year"], got["year"])
	}
	if got["color"] != "أحمر" {
		t.Errorf("color = %v", got["color"])
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "on", "yes", "نعم", " yes "} {
		if !Truthy(s) {
			t.Errorf("Truthy(%q) = false", s)
		}
	}
	for _, s := range []string{"0", "false", "no", "لا", ""} {
		if Truthy(s) {
			t.Errorf("Truthy(%q) = true", s)
		}
	}
}

func TestLooseCasts(t *testing.T) {
	if CastInt("19.7") != 19 {
		t.Errorf("CastInt(\"19.7\") = %d", CastInt("19.7"))
	}
	if CastInt("abc") != 0 {
		t.Errorf("CastInt(\"abc\") = %d", CastInt("abc"))
	}
	if CastDecimal(" 3.5 ") != 3.5 {
		t.Errorf("CastDecimal = %v", CastDecimal(" 3.5 "))
	}
	if CastBool(2.0) != true {
		t.Error("CastBool(2.0) = false")
	}
	if CastString(42) != "42" {
		t.Errorf("CastString(42) = %q", CastString(42))
	}
	if CastString(true) != "1" {
		t.Errorf("CastString(true) = %q", CastString(true))
	}
}
