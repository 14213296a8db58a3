// Package docclassify infers a coarse document category from a filename.
// It is a fallback hint only: it never fails, never blocks, and must not be
// treated as ground truth by downstream consumers.
package docclassify

import "strings"

// Category is a coarse identification-document category.
type Category string

const (
	CategoryDriversLicense   Category = "drivers_license"
	CategorySSNCard          Category = "ssn_card"
	CategoryPassport         Category = "passport"
	CategoryBirthCertificate Category = "birth_certificate"
	CategoryOther            Category = "other"
)

func (c Category) String() string { return string(c) }

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryDriversLicense, CategorySSNCard, CategoryPassport,
		CategoryBirthCertificate, CategoryOther:
		return true
	}
	return false
}

// Categories lists every category in presentation order.
func Categories() []Category {
	return []Category{
		CategoryDriversLicense,
		CategorySSNCard,
		CategoryPassport,
		CategoryBirthCertificate,
		CategoryOther,
	}
}

// categoryKeywords maps each category to the English and Spanish fragments
// matched against lower-cased filenames. Order matters: the first category
// with a hit wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryDriversLicense, []string{
		"license", "licence", "driver", "dl_", "dmv",
		"licencia", "conducir", "manejar", "brevete",
	}},
	{CategorySSNCard, []string{
		"ssn", "social_security", "social-security", "socialsecurity", "ss_card",
		"seguro_social", "seguro-social", "segurosocial",
	}},
	{CategoryPassport, []string{
		"passport", "pasaporte",
	}},
	{CategoryBirthCertificate, []string{
		"birth", "birth_certificate", "birthcert",
		"nacimiento", "acta_de_nacimiento", "partida",
	}},
}

// Classify guesses the category from the original filename. Unmatched input
// always yields CategoryOther.
func Classify(filename string) Category {
	name := strings.ToLower(filename)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.category
			}
		}
	}
	return CategoryOther
}
