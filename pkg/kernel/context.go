package kernel

// SessionContext is the authenticated session identity injected per request.
// Token issuance and refresh belong to the wizard's auth layer; this subsystem
// only consumes the parsed claims.
type SessionContext struct {
	SessionID SessionID `json:"session_id"`
	Subject   string    `json:"subject"`
	Language  string    `json:"language"`
}

// IsValid reports whether the context carries a usable session identity.
func (sc *SessionContext) IsValid() bool {
	return sc != nil && !sc.SessionID.IsEmpty()
}

// ContextKey is the type used for values stored in context.Context and
// fiber locals.
type ContextKey string

const (
	// SessionContextKey stores the *SessionContext for the request.
	SessionContextKey ContextKey = "session_context"

	// RequestIDKey stores the request correlation id.
	RequestIDKey ContextKey = "request_id"
)
