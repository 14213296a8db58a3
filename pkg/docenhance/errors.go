package docenhance

import "github.com/relayhr/doccapture/pkg/errx"

var enhanceErrors = errx.NewRegistry("ENHANCE")

var (
	ErrUndecodable = enhanceErrors.Register("UNDECODABLE", errx.TypeValidation, 422,
		"Source image could not be decoded")
	ErrEncodeFailed = enhanceErrors.Register("ENCODE_FAILED", errx.TypeInternal, 500,
		"Enhanced image could not be encoded")
)
