package ocrmap_test

import (
	"reflect"
	"testing"

	"github.com/relayhr/doccapture/pkg/ocrmap"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"First Name", ocrmap.FieldFirstName, true},
		{"given_name", ocrmap.FieldFirstName, true},
		{"Apellido", ocrmap.FieldLastName, true},
		{"Surname", ocrmap.FieldLastName, true},
		{"Name", ocrmap.FieldFullName, true},
		{"Nombre Completo", ocrmap.FieldFullName, true},
		{"DOB", ocrmap.FieldDateOfBirth, true},
		{"Fecha de Nacimiento", ocrmap.FieldDateOfBirth, true},
		{"Street Address", ocrmap.FieldAddress, true},
		{"Ciudad", ocrmap.FieldCity, true},
		{"ZIP", ocrmap.FieldZipCode, true},
		{"DL Number", ocrmap.FieldLicenseNumber, true},
		{"Social Security No.", ocrmap.FieldSSN, true},
		{"Pasaporte", ocrmap.FieldPassportNumber, true},
		{"Expiration Date", ocrmap.FieldExpiryDate, true},
		{"Telefono", ocrmap.FieldPhone, true},
		{"Correo Electronico", ocrmap.FieldEmail, true},
		{"barcode_payload", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ocrmap.CanonicalKey(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CanonicalKey(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

// The synonym table is evaluated in order: a raw key that could satisfy
// several canonical keys maps to the first one only.
func TestCanonicalKey_TableOrderTieBreak(t *testing.T) {
	// "last name" satisfies both lastName ("last name") and fullName ("name");
	// lastName comes first in the table.
	if got, _ := ocrmap.CanonicalKey("Last Name"); got != ocrmap.FieldLastName {
		t.Fatalf("Last Name mapped to %q, want %q", got, ocrmap.FieldLastName)
	}
	// Bare "name" falls through first/last and lands on fullName.
	if got, _ := ocrmap.CanonicalKey("name"); got != ocrmap.FieldFullName {
		t.Fatalf("name mapped to %q, want %q", got, ocrmap.FieldFullName)
	}
}

func TestNormalize(t *testing.T) {
	raw := map[string]string{
		"First Name":     "Maria",
		"Apellido":       "Lopez",
		"DOB":            "1990-04-12",
		"DL Number":      "A1234567",
		"weird_field_17": "kept as-is",
	}

	got := ocrmap.Normalize(raw)
	want := map[string]string{
		ocrmap.FieldFirstName:     "Maria",
		ocrmap.FieldLastName:      "Lopez",
		ocrmap.FieldDateOfBirth:   "1990-04-12",
		ocrmap.FieldLicenseNumber: "A1234567",
		"weird_field_17":          "kept as-is",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
}

// Re-mapping an already-canonical field set is a no-op: map(map(x)) = map(x).
func TestNormalize_RoundTrip(t *testing.T) {
	raw := map[string]string{
		"Given Name":   "Ana",
		"Surname":      "Reyes",
		"Passport No.": "X998877",
		"Expiry":       "2031-01-01",
		"mrz_line_2":   "P<USAREYES<<ANA",
	}

	once := ocrmap.Normalize(raw)
	twice := ocrmap.Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("mapping is not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

// Every canonical key must map to itself, otherwise idempotency breaks.
func TestNormalize_CanonicalKeysAreFixedPoints(t *testing.T) {
	canonical := []string{
		ocrmap.FieldFirstName, ocrmap.FieldLastName, ocrmap.FieldFullName,
		ocrmap.FieldDateOfBirth, ocrmap.FieldAddress, ocrmap.FieldCity,
		ocrmap.FieldState, ocrmap.FieldZipCode, ocrmap.FieldLicenseNumber,
		ocrmap.FieldSSN, ocrmap.FieldPassportNumber, ocrmap.FieldIssuingAuthority,
		ocrmap.FieldExpiryDate, ocrmap.FieldPhone, ocrmap.FieldEmail,
	}
	for _, key := range canonical {
		got, ok := ocrmap.CanonicalKey(key)
		if !ok || got != key {
			t.Errorf("CanonicalKey(%q) = (%q, %v), want fixed point", key, got, ok)
		}
	}
}

func TestNormalize_CollisionIsDeterministic(t *testing.T) {
	raw := map[string]string{
		"licence": "from licence",
		"license": "from license",
	}
	for i := 0; i < 20; i++ {
		got := ocrmap.Normalize(raw)
		if got[ocrmap.FieldLicenseNumber] != "from licence" {
			t.Fatalf("collision winner changed: %v", got)
		}
	}
}

func TestNormalizeConfidences(t *testing.T) {
	raw := map[string]float64{
		"First Name": 93,
		"Surname":    88,
		"mystery":    40,
	}
	got := ocrmap.NormalizeConfidences(raw)
	if got[ocrmap.FieldFirstName] != 93 || got[ocrmap.FieldLastName] != 88 || got["mystery"] != 40 {
		t.Fatalf("NormalizeConfidences = %v", got)
	}
}
