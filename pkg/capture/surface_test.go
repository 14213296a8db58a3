package capture

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/relayhr/doccapture/pkg/imaging"
)

// fakeCamera feeds synthetic frames to the analyzer and records lifecycle
// calls, standing in for the platform video stack.
type fakeCamera struct {
	mu        sync.Mutex
	frame     *imaging.Pixmap
	openErr   error
	encodeErr error
	opened    bool
	stops     int
	encodes   int
}

func (c *fakeCamera) OpenStream(_ context.Context, _ StreamPrefs) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	return nil
}

func (c *fakeCamera) GrabFrame() (*imaging.Pixmap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame, nil
}

func (c *fakeCamera) EncodeFrame(_ int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encodes++
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	return []byte("captured-frame"), nil
}

func (c *fakeCamera) StopStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = false
	c.stops++
}

func (c *fakeCamera) setFrame(p *imaging.Pixmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = p
}

func (c *fakeCamera) encodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encodes
}

// recorder is a thread-safe event and capture sink.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	captures []bool // automatic flag per shutter payload
	fired    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 4)}
}

func (r *recorder) onEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) onCapture(data []byte, automatic bool) {
	r.mu.Lock()
	r.captures = append(r.captures, automatic)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) captureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.captures)
}

func (r *recorder) waitCapture(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("capture handler was not invoked")
	}
}

// flatFrame has no edges at all.
func flatFrame(w, h int) *imaging.Pixmap {
	p := imaging.NewPixmap(w, h)
	p.Fill(color.RGBA{R: 200, G: 200, B: 200, A: 255})
	return p
}

// stripeFrame alternates 8px black and white columns; its edge ratio lands
// well inside the default detection band.
func stripeFrame(w, h int) *imaging.Pixmap {
	p := imaging.NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if (x/8)%2 == 0 {
				v = 255
			}
			p.Set(x, y, v, v, v, 255)
		}
	}
	return p
}

// checkerFrame alternates every pixel, saturating the edge ratio past the
// upper bound of the detection band.
func checkerFrame(w, h int) *imaging.Pixmap {
	p := imaging.NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if (x+y)%2 == 0 {
				v = 255
			}
			p.Set(x, y, v, v, v, 255)
		}
	}
	return p
}

// newTestSurface wires a surface whose timers never fire on their own; tests
// drive pollTick and countdownTick directly.
func newTestSurface(cam *fakeCamera, rec *recorder, opts ...Option) *Surface {
	opts = append([]Option{WithPollInterval(time.Hour)}, opts...)
	s := NewSurface(cam, opts...)
	s.opts.countdownInterval = time.Hour
	s.OnEvent(rec.onEvent)
	s.OnCapture(rec.onCapture)
	return s
}

func openStreaming(t *testing.T, s *Surface) {
	t.Helper()
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.State(); got != StateStreaming {
		t.Fatalf("state after open = %q, want %q", got, StateStreaming)
	}
}

func TestOpenDeniedThenRetry(t *testing.T) {
	cam := &fakeCamera{openErr: errors.New("NotAllowedError")}
	rec := newRecorder()
	s := newTestSurface(cam, rec)

	err := s.Open(context.Background())
	if err == nil {
		t.Fatal("expected permission error")
	}
	if err.Code != ErrPermissionDenied.Code {
		t.Fatalf("error code = %q, want %q", err.Code, ErrPermissionDenied.Code)
	}
	if got := s.State(); got != StateBlocked {
		t.Fatalf("state after denial = %q, want %q", got, StateBlocked)
	}
	if rec.count(EventPermissionDenied) != 1 {
		t.Fatal("expected a permission_denied event")
	}

	// The blocked state is recoverable: a later Open retries the prompt.
	cam.mu.Lock()
	cam.openErr = nil
	cam.mu.Unlock()
	openStreaming(t, s)
	s.Close()
}

func TestOpenTwiceConflicts(t *testing.T) {
	cam := &fakeCamera{}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	openStreaming(t, s)
	defer s.Close()

	err := s.Open(context.Background())
	if err == nil || err.Code != ErrAlreadyOpen.Code {
		t.Fatalf("second Open error = %v, want %s", err, ErrAlreadyOpen.Code)
	}
}

func TestManualCaptureClosesSurface(t *testing.T) {
	cam := &fakeCamera{}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	openStreaming(t, s)

	data, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(data) != "captured-frame" {
		t.Fatalf("capture payload = %q", data)
	}
	if got := s.State(); got != StateClosed {
		t.Fatalf("state after capture = %q, want %q", got, StateClosed)
	}
	rec.waitCapture(t)

	rec.mu.Lock()
	automatic := rec.captures[0]
	rec.mu.Unlock()
	if automatic {
		t.Fatal("manual capture reported as automatic")
	}
	if rec.count(EventShutter) != 1 {
		t.Fatalf("shutter events = %d, want 1", rec.count(EventShutter))
	}
}

func TestCaptureRequiresStream(t *testing.T) {
	s := newTestSurface(&fakeCamera{}, newRecorder())
	if _, err := s.Capture(); err == nil || err.Code != ErrNotStreaming.Code {
		t.Fatalf("Capture on closed surface = %v, want %s", err, ErrNotStreaming.Code)
	}
}

func TestDetectionBand(t *testing.T) {
	cam := &fakeCamera{}
	rec := newRecorder()
	s := newTestSurface(cam, rec, WithAutoCapture(false))
	openStreaming(t, s)
	defer s.Close()

	// No frame yet: the tick is skipped, not an error.
	s.pollTick()
	if s.DocumentDetected() {
		t.Fatal("detected with no frame")
	}

	cam.setFrame(flatFrame(64, 48))
	s.pollTick()
	if s.DocumentDetected() {
		t.Fatal("flat frame classified as document")
	}

	cam.setFrame(checkerFrame(64, 48))
	s.pollTick()
	if s.DocumentDetected() {
		t.Fatal("noise frame classified as document")
	}

	cam.setFrame(stripeFrame(64, 48))
	s.pollTick()
	if !s.DocumentDetected() {
		t.Fatal("document frame not detected")
	}
	if rec.count(EventDetectionChanged) != 1 {
		t.Fatalf("detection_changed events = %d, want 1", rec.count(EventDetectionChanged))
	}
}

func TestAutoCaptureFiresExactlyOnce(t *testing.T) {
	cam := &fakeCamera{frame: stripeFrame(64, 48)}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	openStreaming(t, s)

	// Document comes into view: countdown arms.
	s.pollTick()
	if got := s.CountdownRemaining(); got != 3 {
		t.Fatalf("countdown after detection = %d, want 3", got)
	}

	// Sustained detection must not re-arm or reset the countdown.
	s.pollTick()
	s.pollTick()
	if got := s.CountdownRemaining(); got != 3 {
		t.Fatalf("countdown after sustained detection = %d, want 3", got)
	}

	// Manual capture is blocked while the countdown runs.
	if _, err := s.Capture(); err == nil || err.Code != ErrCountdownActive.Code {
		t.Fatalf("Capture during countdown = %v, want %s", err, ErrCountdownActive.Code)
	}

	s.countdownTick()
	s.countdownTick()
	if got := s.CountdownRemaining(); got != 1 {
		t.Fatalf("countdown after two ticks = %d, want 1", got)
	}
	s.countdownTick()
	rec.waitCapture(t)

	if got := s.State(); got != StateClosed {
		t.Fatalf("state after auto capture = %q, want %q", got, StateClosed)
	}
	if n := cam.encodeCount(); n != 1 {
		t.Fatalf("frames encoded = %d, want 1", n)
	}
	if n := rec.count(EventShutter); n != 1 {
		t.Fatalf("shutter events = %d, want 1", n)
	}
	rec.mu.Lock()
	automatic := rec.captures[0]
	rec.mu.Unlock()
	if !automatic {
		t.Fatal("auto capture not flagged automatic")
	}

	// Stray ticks after the fire are inert.
	s.countdownTick()
	if n := rec.captureCount(); n != 1 {
		t.Fatalf("captures = %d, want 1", n)
	}
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestFailedAutoShutterClearsCountdownTimer(t *testing.T) {
	cam := &fakeCamera{frame: stripeFrame(64, 48), encodeErr: errors.New("device busy")}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	s.opts.countdownInterval = 50 * time.Millisecond
	openStreaming(t, s)
	defer s.Close()

	// Document in view arms a live countdown; the shutter attempt fails and
	// the surface keeps streaming.
	s.pollTick()
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return cam.encodeCount() >= 1 && !s.capturing
	})

	if got := s.State(); got != StateStreaming {
		t.Fatalf("state after failed auto shutter = %q, want %q", got, StateStreaming)
	}
	if got := s.CountdownRemaining(); got != -1 {
		t.Fatalf("countdown after failed fire = %d, want -1", got)
	}
	s.mu.Lock()
	taskCleared := s.countdownTask == nil
	s.mu.Unlock()
	if !taskCleared {
		t.Fatal("fired countdown task still referenced")
	}

	// A detection flap re-arms exactly one fresh countdown: three full ticks
	// to the next fire, never faster.
	cam.setFrame(flatFrame(64, 48))
	s.pollTick()
	cam.setFrame(stripeFrame(64, 48))
	start := time.Now()
	s.pollTick()
	if got := s.CountdownRemaining(); got != 3 {
		t.Fatalf("countdown after re-arm = %d, want 3", got)
	}
	waitFor(t, func() bool { return cam.encodeCount() >= 2 })
	if elapsed := time.Since(start); elapsed < 140*time.Millisecond {
		t.Fatalf("countdown fired after %v, want at least three 50ms ticks", elapsed)
	}
}

func TestCloseMidCountdownSuppressesCapture(t *testing.T) {
	cam := &fakeCamera{frame: stripeFrame(64, 48)}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	openStreaming(t, s)

	s.pollTick()
	s.countdownTick() // 2 left
	if got := s.CountdownRemaining(); got != 2 {
		t.Fatalf("countdown = %d, want 2", got)
	}

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	s.Close()
	if got := s.CountdownRemaining(); got != -1 {
		t.Fatalf("countdown after close = %d, want -1", got)
	}

	// A fire that raced the close must be suppressed by the generation check.
	s.autoFire(generation, nil)
	s.countdownTick()

	if n := rec.captureCount(); n != 0 {
		t.Fatalf("captures after close = %d, want 0", n)
	}
	if n := rec.count(EventShutter); n != 0 {
		t.Fatalf("shutter events after close = %d, want 0", n)
	}
	if n := cam.encodeCount(); n != 0 {
		t.Fatalf("frames encoded after close = %d, want 0", n)
	}
}

func TestCloseIdempotent(t *testing.T) {
	cam := &fakeCamera{}
	rec := newRecorder()
	s := newTestSurface(cam, rec)
	openStreaming(t, s)

	s.Close()
	s.Close()
	if got := s.State(); got != StateClosed {
		t.Fatalf("state = %q, want %q", got, StateClosed)
	}
	// requesting -> streaming -> closed; the second Close adds nothing.
	if n := rec.count(EventStateChanged); n != 3 {
		t.Fatalf("state_changed events = %d, want 3", n)
	}
}

func TestAutoCaptureDisabled(t *testing.T) {
	cam := &fakeCamera{frame: stripeFrame(64, 48)}
	rec := newRecorder()
	s := newTestSurface(cam, rec, WithAutoCapture(false))
	openStreaming(t, s)
	defer s.Close()

	s.pollTick()
	if !s.DocumentDetected() {
		t.Fatal("document frame not detected")
	}
	if got := s.CountdownRemaining(); got != -1 {
		t.Fatalf("countdown armed with auto-capture disabled: %d", got)
	}
}
