package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := NotFound("category cars")
	if !IsNotFound(err) {
		t.Error("IsNotFound = false")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("IsNotFound matched unrelated error")
	}
}

func TestValidationCarriesField(t *testing.T) {
	err := Validation("city_id", "city %d does not belong to governorate %d", 5, 2)

	ve, ok := AsValidation(err)
	if !ok {
		t.Fatal("AsValidation = false")
	}
	if ve.Field != "city_id" {
		t.Errorf("Field = %q", ve.Field)
	}
	if ve.Message == "" {
		t.Error("empty message")
	}

	// Survives wrapping.
	wrapped := fmt.Errorf("create listing: %w", err)
	if _, ok := AsValidation(wrapped); !ok {
		t.Error("AsValidation failed through wrap")
	}
	if _, ok := AsValidation(errors.New("boom")); ok {
		t.Error("AsValidation matched unrelated error")
	}
}
