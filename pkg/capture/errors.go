package capture

import "github.com/relayhr/doccapture/pkg/errx"

var captureErrors = errx.NewRegistry("CAPTURE")

var (
	ErrPermissionDenied = captureErrors.Register("PERMISSION_DENIED", errx.TypeAuthorization, 403,
		"Camera access was denied")
	ErrNotStreaming = captureErrors.Register("NOT_STREAMING", errx.TypeConflict, 409,
		"Capture requires an active stream")
	ErrCaptureInFlight = captureErrors.Register("CAPTURE_IN_FLIGHT", errx.TypeConflict, 409,
		"A capture is already in progress")
	ErrCountdownActive = captureErrors.Register("COUNTDOWN_ACTIVE", errx.TypeConflict, 409,
		"Auto-capture countdown is running")
	ErrFrameGrab = captureErrors.Register("FRAME_GRAB", errx.TypeInternal, 500,
		"Could not read a frame from the stream")
	ErrAlreadyOpen = captureErrors.Register("ALREADY_OPEN", errx.TypeConflict, 409,
		"Surface is already open")
)
