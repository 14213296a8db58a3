package doccollect

import "github.com/relayhr/doccapture/pkg/errx"

var collectErrors = errx.NewRegistry("DOCCOLLECT")

var (
	ErrDuplicateID = collectErrors.Register("DUPLICATE_ID", errx.TypeConflict, 409,
		"A document with this id already exists")
	ErrNotFound = collectErrors.Register("NOT_FOUND", errx.TypeNotFound, 404,
		"Document not found")
	ErrNoSelection = collectErrors.Register("NO_SELECTION", errx.TypeValidation, 400,
		"Bulk delete requires at least one selected document")
	ErrConfirmationRequired = collectErrors.Register("CONFIRMATION_REQUIRED", errx.TypeValidation, 400,
		"Bulk delete requires explicit confirmation")
)
