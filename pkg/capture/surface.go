// Package capture owns the camera lifecycle for document capture: permission
// handling, live document detection over the video stream, the auto-capture
// countdown and the shutter itself. The platform video stack is abstracted
// behind the Camera interface so the whole pipeline runs against synthetic
// frames in tests.
package capture

import (
	"context"
	"sync"

	"github.com/relayhr/doccapture/pkg/asyncx"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/logx"
)

// State is the capture surface lifecycle state.
type State string

const (
	StateClosed     State = "closed"
	StateRequesting State = "requesting-permission"
	StateStreaming  State = "streaming"
	StateBlocked    State = "blocked"
)

// Surface drives one camera session. A surface may be reopened after Close
// or after a permission denial; the camera handle is exclusively owned
// between a successful Open and the matching Close.
type Surface struct {
	camera Camera
	opts   Options

	onEvent   EventHandler
	onCapture CaptureHandler

	mu            sync.Mutex
	state         State
	capturing     bool
	detected      bool
	countdownLeft int // -1 when idle
	generation    int // bumped on every Close to invalidate in-flight auto fires
	pollTask      *asyncx.Task
	countdownTask *asyncx.Task
}

// NewSurface creates a closed surface over the given camera.
func NewSurface(camera Camera, opts ...Option) *Surface {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Surface{camera: camera, opts: o, state: StateClosed, countdownLeft: -1}
}

// OnEvent registers the event subscriber. Must be set before Open.
func (s *Surface) OnEvent(h EventHandler) { s.onEvent = h }

// OnCapture registers the captured-file receiver. Must be set before Open.
func (s *Surface) OnCapture(h CaptureHandler) { s.onCapture = h }

// State returns the current lifecycle state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DocumentDetected reports the analyzer's current classification.
func (s *Surface) DocumentDetected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detected
}

// CountdownRemaining returns the seconds left on the auto-capture countdown,
// or -1 when idle.
func (s *Surface) CountdownRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdownLeft
}

// Open requests camera access and, on grant, starts streaming and the frame
// analyzer. On denial the surface transitions to blocked; calling Open again
// is the retry affordance.
func (s *Surface) Open(ctx context.Context) *errx.Error {
	s.mu.Lock()
	if s.state == StateStreaming || s.state == StateRequesting {
		s.mu.Unlock()
		return captureErrors.New(ErrAlreadyOpen)
	}
	s.state = StateRequesting
	s.mu.Unlock()
	s.emit(Event{Type: EventStateChanged, State: StateRequesting})

	if err := s.camera.OpenStream(ctx, s.opts.StreamPrefs); err != nil {
		// Release whatever the backend may have partially acquired.
		s.camera.StopStream()

		s.mu.Lock()
		s.state = StateBlocked
		s.mu.Unlock()

		wrapped := captureErrors.NewWithCause(ErrPermissionDenied, err)
		s.emit(Event{Type: EventStateChanged, State: StateBlocked})
		s.emit(Event{Type: EventPermissionDenied, Err: wrapped})
		return wrapped
	}

	s.mu.Lock()
	if s.state != StateRequesting {
		// Closed while the permission prompt was pending.
		s.mu.Unlock()
		s.camera.StopStream()
		return captureErrors.New(ErrNotStreaming)
	}
	s.state = StateStreaming
	s.detected = false
	s.countdownLeft = -1
	s.pollTask = asyncx.Every(s.opts.PollInterval, s.pollTick)
	s.mu.Unlock()

	s.emit(Event{Type: EventStateChanged, State: StateStreaming})
	return nil
}

// Capture fires the shutter manually. Valid only while streaming, never
// while another capture is in flight or an auto-capture countdown is
// running. On success the encoded image is returned, handed to the capture
// handler, and the surface closes.
func (s *Surface) Capture() ([]byte, *errx.Error) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return nil, captureErrors.New(ErrNotStreaming)
	}
	if s.capturing {
		s.mu.Unlock()
		return nil, captureErrors.New(ErrCaptureInFlight)
	}
	if s.countdownLeft >= 0 {
		s.mu.Unlock()
		return nil, captureErrors.New(ErrCountdownActive)
	}
	s.capturing = true
	s.mu.Unlock()

	return s.finishCapture(false)
}

// finishCapture encodes the current frame, emits it and closes the surface.
// The caller must have set the capturing guard.
func (s *Surface) finishCapture(automatic bool) ([]byte, *errx.Error) {
	data, err := s.camera.EncodeFrame(s.opts.JPEGQuality)
	if err != nil {
		s.mu.Lock()
		s.capturing = false
		s.mu.Unlock()
		return nil, captureErrors.NewWithCause(ErrFrameGrab, err)
	}

	s.emit(Event{Type: EventShutter, Automatic: automatic})
	if s.onCapture != nil {
		s.onCapture(data, automatic)
	}
	s.Close()
	return data, nil
}

// Close tears the session down from any state: stops the stream, cancels
// both the analysis and countdown timers, and suppresses any auto capture
// the countdown would have triggered. Idempotent.
func (s *Surface) Close() {
	s.mu.Lock()
	wasClosed := s.state == StateClosed
	s.state = StateClosed
	s.capturing = false
	s.detected = false
	s.countdownLeft = -1
	s.generation++
	pt, ct := s.pollTask, s.countdownTask
	s.pollTask, s.countdownTask = nil, nil
	s.mu.Unlock()

	// Stop outside the lock: task loops take the lock in their tick.
	if pt != nil {
		pt.Stop()
	}
	if ct != nil {
		ct.Stop()
	}
	s.camera.StopStream()

	if !wasClosed {
		s.emit(Event{Type: EventStateChanged, State: StateClosed})
	}
}

// autoFire is the countdown-completion shutter path. It disposes the spent
// countdown task, then re-validates the session under the lock so a Close
// that raced the countdown suppresses the capture.
func (s *Surface) autoFire(generation int, countdown *asyncx.Task) {
	// Stop the fired countdown even when the shutter fails and the surface
	// keeps streaming. Runs off the task's own loop, so Stop cannot deadlock.
	if countdown != nil {
		countdown.Stop()
	}

	s.mu.Lock()
	if s.generation != generation || s.state != StateStreaming || s.capturing {
		s.mu.Unlock()
		return
	}
	s.capturing = true
	s.mu.Unlock()

	if _, err := s.finishCapture(true); err != nil {
		logx.WithError(err).Warn("capture: auto shutter failed")
	}
}

func (s *Surface) emit(e Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}
