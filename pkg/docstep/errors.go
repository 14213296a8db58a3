package docstep

import "github.com/relayhr/doccapture/pkg/errx"

var stepErrors = errx.NewRegistry("DOCSTEP")

var (
	ErrMaxDocuments = stepErrors.Register("MAX_DOCUMENTS", errx.TypeBusiness, 422,
		"Session document limit reached")
	ErrCategoryNotAllowed = stepErrors.Register("CATEGORY_NOT_ALLOWED", errx.TypeValidation, 422,
		"This document category is not accepted in this step")
	ErrNotEnhanceable = stepErrors.Register("NOT_ENHANCEABLE", errx.TypeBusiness, 422,
		"Only image documents can be enhanced")
)
