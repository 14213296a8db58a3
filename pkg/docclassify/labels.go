package docclassify

// labels holds the human-readable category names per language. The wizard
// collaborator hands us a session language; collection search matches
// against these labels.
var labels = map[string]map[Category]string{
	"en": {
		CategoryDriversLicense:   "Driver's License",
		CategorySSNCard:          "Social Security Card",
		CategoryPassport:         "Passport",
		CategoryBirthCertificate: "Birth Certificate",
		CategoryOther:            "Other Document",
	},
	"es": {
		CategoryDriversLicense:   "Licencia de Conducir",
		CategorySSNCard:          "Tarjeta de Seguro Social",
		CategoryPassport:         "Pasaporte",
		CategoryBirthCertificate: "Acta de Nacimiento",
		CategoryOther:            "Otro Documento",
	},
}

// Label returns the localized display name for a category. Unknown languages
// fall back to English; unknown categories fall back to the "other" label.
func Label(c Category, language string) string {
	table, ok := labels[language]
	if !ok {
		table = labels["en"]
	}
	if label, ok := table[c]; ok {
		return label
	}
	return table[CategoryOther]
}
