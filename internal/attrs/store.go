package attrs

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store reads and writes the shared listing_attributes table. It is the only
// place allowed to decide which typed column a value lands in.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// truthyTokens are the textual forms accepted as "true" for bool attributes.
var truthyTokens = map[string]bool{
	"1":    true,
	"true": true,
	"on":   true,
	"yes":  true,
	"نعم":  true,
}

// Truthy reports whether a textual token reads as true.
func Truthy(s string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(s))]
}

// IsEmpty reports whether a raw payload value means "clear this attribute".
// Absence of a row means no value, so empty input deletes rather than storing
// a zero.
func IsEmpty(raw interface{}) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Upsert casts raw per the declared type and writes the single row for
// (listingID, key), creating or updating it. Empty input deletes the row.
func (s *Store) Upsert(listingID uint, key string, raw interface{}, declared models.FieldType) error {
	if IsEmpty(raw) {
		return s.Delete(listingID, key)
	}

	row := models.ListingAttribute{ListingID: listingID, Key: key}
	result := s.db.Where("listing_id = ? AND attr_key = ?", listingID, key).First(&row)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	switch declared {
	case models.FieldTypeInt:
		v := CastInt(raw)
		row.SetValue(declared, &v, nil, nil, nil, nil, nil)
	case models.FieldTypeDecimal:
		v := CastDecimal(raw)
		row.SetValue(declared, nil, &v, nil, nil, nil, nil)
	case models.FieldTypeBool:
		v := CastBool(raw)
		row.SetValue(declared, nil, nil, &v, nil, nil, nil)
	case models.FieldTypeJSON:
		v, err := castJSON(raw)
		if err != nil {
			return err
		}
		row.SetValue(declared, nil, nil, nil, nil, v, nil)
	case models.FieldTypeDate:
		v := CastString(raw)
		row.SetValue(declared, nil, nil, nil, nil, nil, &v)
	default:
		v := CastString(raw)
		row.SetValue(models.FieldTypeString, nil, nil, nil, &v, nil, nil)
	}

	if result.Error == gorm.ErrRecordNotFound {
		return s.db.Create(&row).Error
	}
	// Save writes every typed column, which is what keeps the
	// one-populated-column invariant after a schema type change.
	return s.db.Save(&row).Error
}

// Delete removes the row for (listingID, key). Missing rows are fine.
func (s *Store) Delete(listingID uint, key string) error {
	return s.db.Where("listing_id = ? AND attr_key = ?", listingID, key).
		Delete(&models.ListingAttribute{}).Error
}

// DeleteAll removes every attribute row of a listing (listing deletion).
func (s *Store) DeleteAll(listingID uint) error {
	return s.db.Where("listing_id = ?", listingID).
		Delete(&models.ListingAttribute{}).Error
}

// Read reconstructs the key -> value map of a listing from whichever typed
// column each row has populated.
func (s *Store) Read(listingID uint) (map[string]interface{}, error) {
	var rows []models.ListingAttribute
	if err := s.db.Where("listing_id = ?", listingID).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(rows))
	for i := range rows {
		out[rows[i].Key] = rowValue(&rows[i])
	}
	return out, nil
}

// rowValue picks the populated column. At most one is non-null per row.
func rowValue(a *models.ListingAttribute) interface{} {
	switch {
	case a.ValueInt != nil:
		return *a.ValueInt
	case a.ValueDecimal != nil:
		return *a.ValueDecimal
	case a.ValueBool != nil:
		return *a.ValueBool
	case a.ValueString != nil:
		return *a.ValueString
	case a.ValueDate != nil:
		return *a.ValueDate
	case len(a.ValueJSON) > 0:
		var v interface{}
		if err := json.Unmarshal(a.ValueJSON, &v); err != nil {
			return string(a.ValueJSON)
		}
		return v
	}
	return nil
}

// Sync applies a payload's attribute map against the schema. Keys the schema
// does not declare are dropped silently; keys absent from the payload are
// left untouched (partial update semantics).
func (s *Store) Sync(listingID uint, types map[string]models.FieldType, payload map[string]interface{}) error {
	for key, raw := range payload {
		declared, ok := types[key]
		if !ok {
			continue
		}
		if err := s.Upsert(listingID, key, raw, declared); err != nil {
			return err
		}
	}
	return nil
}

// CastInt applies the loose integer cast: numbers truncate, numeric strings
// parse, everything else reads as 0.
func CastInt(raw interface{}) int64 {
	switch v := raw.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		t := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// CastDecimal applies the loose float cast.
func CastDecimal(raw interface{}) float64 {
	switch v := raw.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

// CastBool applies the truthy cast shared with the query engine's in-set
// filter.
func CastBool(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return Truthy(v)
	}
	return false
}

// CastString renders raw as its string form.
func CastString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(b)
}

// castJSON passes structures through as JSON.
func castJSON(raw interface{}) (datatypes.JSON, error) {
	switch v := raw.(type) {
	case datatypes.JSON:
		return v, nil
	case json.RawMessage:
		return datatypes.JSON(v), nil
	case []byte:
		return datatypes.JSON(v), nil
	case string:
		if json.Valid([]byte(v)) {
			return datatypes.JSON(v), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return datatypes.JSON(b), nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
