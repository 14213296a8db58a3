package docclassify_test

import (
	"testing"

	"github.com/relayhr/doccapture/pkg/docclassify"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     docclassify.Category
	}{
		{"drivers_license_front.jpg", docclassify.CategoryDriversLicense},
		{"TX-DMV-renewal.png", docclassify.CategoryDriversLicense},
		{"licencia_de_conducir.jpeg", docclassify.CategoryDriversLicense},
		{"ssn_card.jpg", docclassify.CategorySSNCard},
		{"tarjeta-seguro_social.png", docclassify.CategorySSNCard},
		{"passport-photo-page.jpg", docclassify.CategoryPassport},
		{"Pasaporte2024.jpg", docclassify.CategoryPassport},
		{"birth_certificate.pdf", docclassify.CategoryBirthCertificate},
		{"acta_de_nacimiento.jpg", docclassify.CategoryBirthCertificate},
		{"IMG_20240115_093042.jpg", docclassify.CategoryOther},
		{"scan001.png", docclassify.CategoryOther},
		{"", docclassify.CategoryOther},
	}

	for _, tt := range tests {
		if got := docclassify.Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.filename, got, tt.want)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if got := docclassify.Classify("PASSPORT.JPG"); got != docclassify.CategoryPassport {
		t.Fatalf("expected passport, got %s", got)
	}
}

func TestLabel(t *testing.T) {
	if got := docclassify.Label(docclassify.CategoryPassport, "es"); got != "Pasaporte" {
		t.Fatalf("spanish passport label = %q", got)
	}
	if got := docclassify.Label(docclassify.CategoryPassport, "en"); got != "Passport" {
		t.Fatalf("english passport label = %q", got)
	}
	// Unknown language falls back to English.
	if got := docclassify.Label(docclassify.CategorySSNCard, "fr"); got != "Social Security Card" {
		t.Fatalf("fallback label = %q", got)
	}
}

func TestCategoryValidity(t *testing.T) {
	for _, c := range docclassify.Categories() {
		if !c.IsValid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	if docclassify.Category("tax_form").IsValid() {
		t.Error("unknown category should not be valid")
	}
}
