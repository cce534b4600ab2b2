package models

import (
	"reflect"
	"testing"
)

func TestValidFieldType(t *testing.T) {
	for _, ft := range []FieldType{FieldTypeString, FieldTypeInt, FieldTypeDecimal, FieldTypeBool, FieldTypeDate, FieldTypeJSON} {
		if !ValidFieldType(ft) {
			t.Errorf("ValidFieldType(%q) = false", ft)
		}
	}
	if ValidFieldType("float") {
		t.Error("ValidFieldType(\"float\") = true")
	}
}

func TestSetOptionsPinsCatchAllLast(t *testing.T) {
	f := CategoryField{}
	if err := f.SetOptions([]string{"بنزين", OptionCatchAll, "ديزل"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	got := f.OptionList()
	want := []string{"بنزين", "ديزل", OptionCatchAll}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OptionList() = %v, want %v", got, want)
	}
}

func TestSetOptionsWithoutCatchAll(t *testing.T) {
	f := CategoryField{}
	if err := f.SetOptions([]string{"جديد", "مستعمل"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	got := f.OptionList()
	if !reflect.DeepEqual(got, []string{"جديد", "مستعمل"}) {
		t.Errorf("OptionList() = %v", got)
	}
}

func TestSetOptionsNilMeansFreeForm(t *testing.T) {
	f := CategoryField{}
	if err := f.SetOptions([]string{"a"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if err := f.SetOptions(nil); err != nil {
		t.Fatalf("SetOptions(nil): %v", err)
	}
	if f.OptionList() != nil {
		t.Errorf("OptionList() = %v, want nil", f.OptionList())
	}
}

func TestGalleryRoundTrip(t *testing.T) {
	l := Listing{}
	paths := []string{"a/1.jpg", "a/2.jpg"}
	if err := l.SetGallery(paths); err != nil {
		t.Fatalf("SetGallery: %v", err)
	}
	if got := l.GalleryPaths(); !reflect.DeepEqual(got, paths) {
		t.Errorf("GalleryPaths() = %v, want %v", got, paths)
	}
}
