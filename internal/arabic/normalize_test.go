package arabic

import (
	"strings"
	"testing"
)

func TestNormalizeAlefVariants(t *testing.T) {
	variants := []string{"أحمد", "إحمد", "آحمد", "احمد"}
	want := Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
	if want != "احمد" {
		t.Errorf("canonical form = %q, want %q", want, "احمد")
	}
}

func TestNormalizeLetterFolds(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"مدينة", "مدينه"}, // tāʾ marbūṭa
		{"مصطفى", "مصطفي"}, // alef maksūra
		{"مؤمن", "مومن"},   // hamza on wāw
		{"مسئول", "مسيول"}, // hamza on yāʾ
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeStripsDiacriticsAndTatweel(t *testing.T) {
	if got := Normalize("مُحَمَّد"); got != "محمد" {
		t.Errorf("diacritics: got %q, want %q", got, "محمد")
	}
	if got := Normalize("محـــمد"); got != "محمد" {
		t.Errorf("tatweel: got %q, want %q", got, "محمد")
	}
}

func TestNormalizeCollapsesWhitespaceAndCase(t *testing.T) {
	if got := Normalize("  Toyota   Corolla \t 2020 "); got != "toyota corolla 2020" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize("   "); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "شقة للإيجار في مدينة نصر"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestSQLNormalizeShape(t *testing.T) {
	expr := SQLNormalize("listings.title")
	if !strings.HasPrefix(expr, "LOWER(") {
		t.Errorf("expression not wrapped in LOWER: %s", expr)
	}
	if !strings.Contains(expr, "listings.title") {
		t.Errorf("column reference missing from %s", expr)
	}
	if strings.Count(expr, "REPLACE(") != len(sqlReplacements) {
		t.Errorf("expected %d REPLACE calls, got %d", len(sqlReplacements), strings.Count(expr, "REPLACE("))
	}
}
