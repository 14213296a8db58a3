// Package ocrmap reconciles heterogeneous OCR field names into the canonical
// vocabulary consumed by onboarding forms. Mapping is table-driven: each raw
// key is matched against per-canonical synonym lists in a fixed order, so
// tie-breaks are deliberate and testable.
package ocrmap

import (
	"sort"
	"strings"
)

// Canonical field keys, in match-priority order.
const (
	FieldFirstName        = "firstName"
	FieldLastName         = "lastName"
	FieldFullName         = "fullName"
	FieldDateOfBirth      = "dateOfBirth"
	FieldAddress          = "address"
	FieldCity             = "city"
	FieldState            = "state"
	FieldZipCode          = "zipCode"
	FieldLicenseNumber    = "licenseNumber"
	FieldSSN              = "ssn"
	FieldPassportNumber   = "passportNumber"
	FieldIssuingAuthority = "issuingAuthority"
	FieldExpiryDate       = "expiryDate"
	FieldPhone            = "phone"
	FieldEmail            = "email"
)

// synonymEntry binds one canonical key to the lower-cased fragments that
// identify it in raw OCR output. English and Spanish variants are matched.
type synonymEntry struct {
	canonical string
	synonyms  []string
}

// synonymTable is evaluated top to bottom; a raw key maps to the FIRST
// canonical entry any of whose synonyms it contains. Reordering entries or
// adding broad fragments changes mapping behavior, so keep fragments
// specific and keep canonical self-names in their own entry.
var synonymTable = []synonymEntry{
	{FieldFirstName, []string{"firstname", "first name", "first_name", "given name", "given_name", "nombre de pila", "primer nombre"}},
	{FieldLastName, []string{"lastname", "last name", "last_name", "surname", "family name", "apellido"}},
	{FieldFullName, []string{"fullname", "full name", "full_name", "name", "nombre completo", "nombre"}},
	{FieldDateOfBirth, []string{"dateofbirth", "date of birth", "birth date", "birthdate", "dob", "fecha de nacimiento", "nacimiento"}},
	{FieldAddress, []string{"address", "street", "direccion", "dirección", "domicilio"}},
	{FieldCity, []string{"city", "ciudad"}},
	{FieldState, []string{"state", "province", "estado", "provincia"}},
	{FieldZipCode, []string{"zipcode", "zip code", "zip", "postal", "codigo postal", "código postal"}},
	{FieldLicenseNumber, []string{"licensenumber", "license", "licence", "dl number", "licencia"}},
	{FieldSSN, []string{"ssn", "social security", "seguro social"}},
	{FieldPassportNumber, []string{"passportnumber", "passport", "pasaporte"}},
	{FieldIssuingAuthority, []string{"issuingauthority", "issuing", "authority", "issuer", "autoridad", "emisor"}},
	{FieldExpiryDate, []string{"expirydate", "expiry", "expiration", "expires", "vencimiento", "vigencia"}},
	{FieldPhone, []string{"phone", "telephone", "mobile", "celular", "telefono", "teléfono"}},
	{FieldEmail, []string{"email", "e-mail", "correo"}},
}

// CanonicalKey resolves a raw OCR field name to its canonical key. The
// second return is false when no synonym matches.
func CanonicalKey(rawKey string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(rawKey))
	for _, entry := range synonymTable {
		for _, syn := range entry.synonyms {
			if strings.Contains(key, syn) {
				return entry.canonical, true
			}
		}
	}
	return "", false
}

// Normalize maps raw field-name → value pairs onto the canonical vocabulary.
// Unmatched raw keys are preserved verbatim so no extracted information is
// silently dropped. When several raw keys resolve to the same canonical key
// the lexicographically first raw key wins, keeping the result independent
// of map iteration order.
func Normalize(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		canonical, ok := CanonicalKey(k)
		if !ok {
			out[k] = raw[k]
			continue
		}
		if _, taken := out[canonical]; !taken {
			out[canonical] = raw[k]
		}
	}
	return out
}

// NormalizeConfidences maps raw field-name → confidence pairs the same way
// Normalize maps values, so confidences stay aligned with their fields.
func NormalizeConfidences(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		canonical, ok := CanonicalKey(k)
		if !ok {
			out[k] = raw[k]
			continue
		}
		if _, taken := out[canonical]; !taken {
			out[canonical] = raw[k]
		}
	}
	return out
}
