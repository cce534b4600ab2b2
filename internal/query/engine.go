package query

import (
	"strings"

	"github.com/DwamTech/nas-masr-sub000/internal/arabic"
	"github.com/DwamTech/nas-masr-sub000/internal/attrs"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/schema"

	"gorm.io/gorm"
)

// Engine composes keyword, location, price and attribute filters into one
// query over the shared attribute table. All type decisions come from the
// schema's type map; no field name is special-cased.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Params are the supported listing search parameters. The four attribute
// maps are keyed by schema field names; keys the schema does not mark
// filterable are dropped silently.
type Params struct {
	Keyword string

	GovernorateID   *uint
	GovernorateName string
	CityID          *uint
	CityName        string

	PriceMin *float64
	PriceMax *float64

	Attr     map[string]string   // equals
	AttrIn   map[string][]string // in-set
	AttrMin  map[string]string   // range lower bound
	AttrMax  map[string]string   // range upper bound
	AttrLike map[string]string   // partial match, string fields only

	Status models.ListingStatus // empty means any status

	Limit  int
	Offset int
}

// Result is a paginated projection of matching listings.
type Result struct {
	Listings []models.Listing `json:"listings"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

const defaultLimit = 20

// Search runs the composed query. Ordering is rank position first (1 is the
// top slot), then publish recency.
func (e *Engine) Search(sch *schema.CategorySchema, p Params) (*Result, error) {
	q := e.db.Model(&models.Listing{}).Where("listings.category_id = ?", sch.ID)

	if p.Status != "" {
		q = q.Where("listings.status = ?", p.Status)
	}

	q = e.applyKeyword(q, p.Keyword)

	q, empty, err := e.applyLocation(q, p)
	if err != nil {
		return nil, err
	}
	if empty {
		// A name filter that resolves to no known location matches nothing.
		q = q.Where("1 = 0")
	}

	if p.PriceMin != nil {
		q = q.Where("listings.price >= ?", *p.PriceMin)
	}
	if p.PriceMax != nil {
		q = q.Where("listings.price <= ?", *p.PriceMax)
	}

	q = e.applyAttrFilters(q, sch, p)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var listings []models.Listing
	err = q.Order("listings.rank_order ASC, listings.published_at DESC, listings.id DESC").
		Limit(limit).
		Offset(p.Offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}

	return &Result{Listings: listings, Total: total, Limit: limit, Offset: p.Offset}, nil
}

// applyKeyword matches the normalized keyword against normalized title and
// description, and the raw keyword against address, reference display names
// and attribute string values. Any hit matches the listing.
func (e *Engine) applyKeyword(q *gorm.DB, keyword string) *gorm.DB {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return q
	}

	norm := "%" + arabic.Normalize(keyword) + "%"
	raw := "%" + keyword + "%"

	cond := strings.Join([]string{
		arabic.SQLNormalize("listings.title") + " LIKE ?",
		arabic.SQLNormalize("listings.description") + " LIKE ?",
		"listings.address LIKE ?",
		"EXISTS (SELECT 1 FROM governorates g WHERE g.id = listings.governorate_id AND g.name LIKE ?)",
		"EXISTS (SELECT 1 FROM cities c WHERE c.id = listings.city_id AND c.name LIKE ?)",
		"EXISTS (SELECT 1 FROM brands b WHERE b.id = listings.brand_id AND b.name LIKE ?)",
		"EXISTS (SELECT 1 FROM brand_models bm WHERE bm.id = listings.brand_model_id AND bm.name LIKE ?)",
		"EXISTS (SELECT 1 FROM sections s WHERE s.id = listings.section_id AND s.name LIKE ?)",
		"EXISTS (SELECT 1 FROM sub_sections ss WHERE ss.id = listings.sub_section_id AND ss.name LIKE ?)",
		"EXISTS (SELECT 1 FROM listing_attributes la WHERE la.listing_id = listings.id AND la.value_string LIKE ?)",
	}, " OR ")

	return q.Where("("+cond+")",
		norm, norm, raw, raw, raw, raw, raw, raw, raw, raw)
}

// applyLocation filters by id when supplied, otherwise resolves names to id
// sets with normalized comparison. Returns empty=true when a name matched
// nothing.
func (e *Engine) applyLocation(q *gorm.DB, p Params) (*gorm.DB, bool, error) {
	var govIDs []uint

	if p.GovernorateID != nil {
		govIDs = []uint{*p.GovernorateID}
		q = q.Where("listings.governorate_id = ?", *p.GovernorateID)
	} else if p.GovernorateName != "" {
		var govs []models.Governorate
		if err := e.db.Find(&govs).Error; err != nil {
			return q, false, err
		}
		want := arabic.Normalize(p.GovernorateName)
		for _, g := range govs {
			if arabic.Normalize(g.Name) == want {
				govIDs = append(govIDs, g.ID)
			}
		}
		if len(govIDs) == 0 {
			return q, true, nil
		}
		q = q.Where("listings.governorate_id IN ?", govIDs)
	}

	if p.CityID != nil {
		q = q.Where("listings.city_id = ?", *p.CityID)
	} else if p.CityName != "" {
		cq := e.db.Model(&models.City{})
		if len(govIDs) > 0 {
			cq = cq.Where("governorate_id IN ?", govIDs)
		}
		var cities []models.City
		if err := cq.Find(&cities).Error; err != nil {
			return q, false, err
		}
		want := arabic.Normalize(p.CityName)
		var cityIDs []uint
		for _, c := range cities {
			if arabic.Normalize(c.Name) == want {
				cityIDs = append(cityIDs, c.ID)
			}
		}
		if len(cityIDs) == 0 {
			return q, true, nil
		}
		q = q.Where("listings.city_id IN ?", cityIDs)
	}

	return q, false, nil
}

// applyAttrFilters adds one EXISTS subquery per requested attribute filter.
// Only schema-declared filterable fields participate.
func (e *Engine) applyAttrFilters(q *gorm.DB, sch *schema.CategorySchema, p Params) *gorm.DB {
	types := sch.TypesByField()

	filterable := func(key string) (models.FieldType, bool) {
		f, ok := sch.Field(key)
		if !ok || !f.Filterable {
			return "", false
		}
		return types[key], true
	}

	for key, val := range p.Attr {
		t, ok := filterable(key)
		if !ok {
			continue
		}
		q = e.attrEquals(q, key, val, t)
	}

	for key, vals := range p.AttrIn {
		t, ok := filterable(key)
		if !ok || len(vals) == 0 {
			continue
		}
		q = e.attrIn(q, key, vals, t)
	}

	rangeKeys := map[string]bool{}
	for key := range p.AttrMin {
		rangeKeys[key] = true
	}
	for key := range p.AttrMax {
		rangeKeys[key] = true
	}
	for key := range rangeKeys {
		t, ok := filterable(key)
		if !ok {
			continue
		}
		minV, hasMin := p.AttrMin[key]
		maxV, hasMax := p.AttrMax[key]
		q = e.attrRange(q, key, t, minV, hasMin, maxV, hasMax)
	}

	for key, val := range p.AttrLike {
		t, ok := filterable(key)
		if !ok || t != models.FieldTypeString {
			continue
		}
		cond := arabic.SQLNormalize("la.value_string") + " LIKE ?"
		q = q.Where(attrExists(cond), key, "%"+arabic.Normalize(val)+"%")
	}

	return q
}

// attrExists wraps an attribute condition in the per-key EXISTS subquery.
func attrExists(cond string) string {
	return "EXISTS (SELECT 1 FROM listing_attributes la WHERE la.listing_id = listings.id AND la.attr_key = ? AND " + cond + ")"
}

func (e *Engine) attrEquals(q *gorm.DB, key, val string, t models.FieldType) *gorm.DB {
	switch t {
	case models.FieldTypeInt:
		return q.Where(attrExists("la.value_int = ?"), key, attrs.CastInt(val))
	case models.FieldTypeDecimal:
		return q.Where(attrExists("la.value_decimal = ?"), key, attrs.CastDecimal(val))
	case models.FieldTypeBool:
		return q.Where(attrExists("la.value_bool = ?"), key, attrs.CastBool(val))
	case models.FieldTypeDate:
		return q.Where(attrExists("la.value_date = ?"), key, val)
	case models.FieldTypeJSON:
		return q.Where(attrExists("la.value_json = ?"), key, val)
	default:
		// Letter-variant and diacritic differences must not hide an exact
		// match on string fields.
		cond := "(la.value_string = ? OR " + arabic.SQLNormalize("la.value_string") + " = ?)"
		return q.Where(attrExists(cond), key, val, arabic.Normalize(val))
	}
}

func (e *Engine) attrIn(q *gorm.DB, key string, vals []string, t models.FieldType) *gorm.DB {
	switch t {
	case models.FieldTypeInt:
		cast := make([]int64, 0, len(vals))
		for _, v := range vals {
			cast = append(cast, attrs.CastInt(v))
		}
		return q.Where(attrExists("la.value_int IN ?"), key, cast)
	case models.FieldTypeDecimal:
		cast := make([]float64, 0, len(vals))
		for _, v := range vals {
			cast = append(cast, attrs.CastDecimal(v))
		}
		return q.Where(attrExists("la.value_decimal IN ?"), key, cast)
	case models.FieldTypeBool:
		cast := make([]bool, 0, len(vals))
		for _, v := range vals {
			cast = append(cast, attrs.Truthy(v))
		}
		return q.Where(attrExists("la.value_bool IN ?"), key, cast)
	case models.FieldTypeDate:
		return q.Where(attrExists("la.value_date IN ?"), key, vals)
	default:
		return q.Where(attrExists("la.value_string IN ?"), key, vals)
	}
}

func (e *Engine) attrRange(q *gorm.DB, key string, t models.FieldType, minV string, hasMin bool, maxV string, hasMax bool) *gorm.DB {
	column, lo, hi := "la.value_string", interface{}(minV), interface{}(maxV)
	switch t {
	case models.FieldTypeInt:
		column, lo, hi = "la.value_int", attrs.CastInt(minV), attrs.CastInt(maxV)
	case models.FieldTypeDecimal:
		column, lo, hi = "la.value_decimal", attrs.CastDecimal(minV), attrs.CastDecimal(maxV)
	case models.FieldTypeDate:
		column = "la.value_date" // ISO dates compare lexicographically
	}

	switch {
	case hasMin && hasMax:
		return q.Where(attrExists(column+" >= ? AND "+column+" <= ?"), key, lo, hi)
	case hasMin:
		return q.Where(attrExists(column+" >= ?"), key, lo)
	case hasMax:
		return q.Where(attrExists(column+" <= ?"), key, hi)
	}
	return q
}
