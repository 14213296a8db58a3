package capture

import (
	"context"

	"github.com/relayhr/doccapture/pkg/imaging"
)

// StreamPrefs expresses the preferred camera configuration. Real backends
// treat these as hints; the rear-facing camera is preferred for document
// capture.
type StreamPrefs struct {
	PreferRearFacing bool
	Width            int
	Height           int
}

// DefaultStreamPrefs targets a document-legible capture resolution.
func DefaultStreamPrefs() StreamPrefs {
	return StreamPrefs{PreferRearFacing: true, Width: 1920, Height: 1080}
}

// Camera abstracts the platform video stack so the surface and the frame
// analyzer can be driven by a fake feeding synthetic frames. The device
// handle acquired by OpenStream is exclusively owned by the caller until
// StopStream.
type Camera interface {
	// OpenStream acquires the device. A denial is returned as an error;
	// the caller decides whether it is recoverable.
	OpenStream(ctx context.Context, prefs StreamPrefs) error

	// GrabFrame returns the current video frame. A zero-dimension frame
	// means the stream is not ready yet and the caller must skip the tick.
	GrabFrame() (*imaging.Pixmap, error)

	// EncodeFrame encodes the current frame at full stream resolution with
	// the given JPEG quality factor.
	EncodeFrame(quality int) ([]byte, error)

	// StopStream releases the device. Must be safe to call repeatedly and
	// without a prior successful OpenStream.
	StopStream()
}
