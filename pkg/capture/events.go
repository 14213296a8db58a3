package capture

// EventType identifies what the capture pipeline is reporting.
type EventType string

const (
	// EventStateChanged fires on every surface state transition.
	EventStateChanged EventType = "state_changed"

	// EventDetectionChanged fires when the frame analyzer's document-present
	// classification flips.
	EventDetectionChanged EventType = "detection_changed"

	// EventCountdownTick fires once per second while the auto-capture
	// countdown runs; SecondsLeft counts down to zero.
	EventCountdownTick EventType = "countdown_tick"

	// EventShutter fires when a frame has been captured, manually or
	// automatically.
	EventShutter EventType = "shutter"

	// EventPermissionDenied fires when the camera could not be acquired.
	EventPermissionDenied EventType = "permission_denied"
)

// Event is the structured payload delivered to the surface's subscriber.
// Presentation (toasts, overlays) is the subscriber's business; the pipeline
// never renders anything itself.
type Event struct {
	Type EventType

	// EventStateChanged
	State State

	// EventDetectionChanged
	DocumentPresent bool
	EdgeRatio       float64

	// EventCountdownTick
	SecondsLeft int

	// EventShutter
	Automatic bool

	// EventPermissionDenied
	Err error
}

// EventHandler receives pipeline events as they happen.
type EventHandler func(Event)

// CaptureHandler receives the encoded image produced by a shutter fire.
type CaptureHandler func(data []byte, automatic bool)
