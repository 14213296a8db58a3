package capture

import (
	"github.com/relayhr/doccapture/pkg/asyncx"
	"github.com/relayhr/doccapture/pkg/logx"
)

// pollTick is the frame analyzer: grab a frame, downscale it, measure edge
// density and classify "document present". Runs once per PollInterval while
// the surface streams. A frame that cannot be read yet is skipped silently;
// streams often deliver zero-dimension frames right after open.
func (s *Surface) pollTick() {
	s.mu.Lock()
	streaming := s.state == StateStreaming
	s.mu.Unlock()
	if !streaming {
		return
	}

	frame, err := s.camera.GrabFrame()
	if err != nil {
		logx.WithError(err).Debug("capture: frame grab failed, skipping tick")
		return
	}
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return
	}

	work := frame.Downscale(s.opts.AnalysisMaxWidth, s.opts.AnalysisMaxHeight)
	ratio := work.EdgeRatio(s.opts.EdgeThreshold)
	present := ratio >= s.opts.MinEdgeRatio && ratio <= s.opts.MaxEdgeRatio

	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	changed := present != s.detected
	s.detected = present

	// A document newly in view arms the countdown, but never while a capture
	// is in flight or another countdown is already running.
	if changed && present && s.opts.AutoCapture && !s.capturing && s.countdownLeft < 0 {
		s.countdownLeft = s.opts.CountdownSeconds
		s.countdownTask = asyncx.Every(s.opts.countdownInterval, s.countdownTick)
	}
	s.mu.Unlock()

	if changed {
		s.emit(Event{Type: EventDetectionChanged, DocumentPresent: present, EdgeRatio: ratio})
	}
}

// countdownTick decrements the auto-capture countdown once per second. On
// reaching zero the shutter fires from a fresh goroutine: the fire path ends
// in Close, which must not run on the countdown task's own loop.
func (s *Surface) countdownTick() {
	s.mu.Lock()
	if s.state != StateStreaming || s.countdownLeft < 0 {
		s.mu.Unlock()
		return
	}
	s.countdownLeft--
	left := s.countdownLeft
	fire := left <= 0
	var spent *asyncx.Task
	if fire {
		// The countdown is finished whether or not the shutter succeeds;
		// hand the task to the fire goroutine for disposal so a later
		// re-arm never stacks a second live timer.
		s.countdownLeft = -1
		spent = s.countdownTask
		s.countdownTask = nil
	}
	generation := s.generation
	s.mu.Unlock()

	s.emit(Event{Type: EventCountdownTick, SecondsLeft: left})
	if fire {
		go s.autoFire(generation, spent)
	}
}
