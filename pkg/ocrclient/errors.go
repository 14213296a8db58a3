package ocrclient

import (
	"encoding/json"

	"github.com/relayhr/doccapture/pkg/errx"
)

var clientErrors = errx.NewRegistry("OCRCLIENT")

var (
	ErrRequest = clientErrors.Register("REQUEST", errx.TypeExternal, 502,
		"Document service request failed")
	ErrResponse = clientErrors.Register("RESPONSE", errx.TypeExternal, 502,
		"Document service returned an unreadable response")
	ErrRemote = clientErrors.Register("REMOTE", errx.TypeExternal, 502,
		"Document service rejected the request")
	ErrRateLimit = clientErrors.Register("RATE_LIMIT", errx.TypeExternal, 429,
		"Document service rate limit exceeded")
)

// apiError is the error envelope the document service returns on non-2xx.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseAPIError converts a non-2xx response into an errx error, keeping the
// upstream status code in the details for retry decisions.
func parseAPIError(statusCode int, body []byte) *errx.Error {
	message := ""
	var envelope apiError
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Message != "" {
			message = envelope.Message
		} else if envelope.Error != "" {
			message = envelope.Error
		}
	}

	code := ErrRemote
	if statusCode == 429 {
		code = ErrRateLimit
	}

	var e *errx.Error
	if message != "" {
		e = clientErrors.NewWithMessage(code, message)
	} else {
		e = clientErrors.New(code)
	}
	return e.WithDetail("status_code", statusCode)
}
