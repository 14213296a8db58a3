package docupload

import "github.com/relayhr/doccapture/pkg/errx"

var uploadErrors = errx.NewRegistry("DOCUPLOAD")

var (
	ErrUnsupportedType = uploadErrors.Register("UNSUPPORTED_TYPE", errx.TypeValidation, 422,
		"Only images and PDF documents can be uploaded")
	ErrFileTooLarge = uploadErrors.Register("FILE_TOO_LARGE", errx.TypeValidation, 413,
		"Document exceeds the maximum upload size")
	ErrEmptyFile = uploadErrors.Register("EMPTY_FILE", errx.TypeValidation, 422,
		"Document is empty")
	ErrNoRemoteID = uploadErrors.Register("NO_REMOTE_ID", errx.TypeBusiness, 409,
		"Document was never stored remotely and cannot be reprocessed")
	ErrNoOCRBlock = uploadErrors.Register("NO_OCR_BLOCK", errx.TypeBusiness, 409,
		"Document has no extraction to reprocess")
)
