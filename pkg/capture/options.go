package capture

import "time"

// Options configures the capture surface and its frame analyzer.
type Options struct {
	// JPEGQuality is the fixed quality factor for shutter encodes.
	JPEGQuality int

	// AutoCapture enables the detect-then-countdown shutter.
	AutoCapture bool

	// PollInterval is the frame analysis cadence.
	PollInterval time.Duration

	// Analysis frames are downscaled to this bound before edge detection.
	AnalysisMaxWidth  int
	AnalysisMaxHeight int

	// EdgeThreshold is the luma delta that counts as an edge.
	EdgeThreshold float64

	// A frame classifies as "document present" when its edge ratio falls
	// inside [MinEdgeRatio, MaxEdgeRatio]: near-zero means an empty frame,
	// very high means visual noise.
	MinEdgeRatio float64
	MaxEdgeRatio float64

	// CountdownSeconds is the delay between sustained detection and the
	// automatic shutter, ticked at 1 Hz.
	CountdownSeconds int

	// StreamPrefs is passed to the camera on open.
	StreamPrefs StreamPrefs

	// countdownInterval is the countdown tick period. Fixed at one second
	// in production; shortened by tests.
	countdownInterval time.Duration
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		JPEGQuality:       85,
		AutoCapture:       true,
		PollInterval:      time.Second,
		AnalysisMaxWidth:  320,
		AnalysisMaxHeight: 240,
		EdgeThreshold:     25,
		MinEdgeRatio:      0.02,
		MaxEdgeRatio:      0.5,
		CountdownSeconds:  3,
		StreamPrefs:       DefaultStreamPrefs(),
		countdownInterval: time.Second,
	}
}

// Option mutates surface options.
type Option func(*Options)

// WithAutoCapture toggles the automatic shutter.
func WithAutoCapture(enabled bool) Option {
	return func(o *Options) { o.AutoCapture = enabled }
}

// WithJPEGQuality overrides the shutter encode quality factor.
func WithJPEGQuality(q int) Option {
	return func(o *Options) {
		if q > 0 && q <= 100 {
			o.JPEGQuality = q
		}
	}
}

// WithPollInterval overrides the frame analysis cadence.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithDetectionBand overrides the edge-ratio band classified as a document.
func WithDetectionBand(min, max float64) Option {
	return func(o *Options) {
		o.MinEdgeRatio = min
		o.MaxEdgeRatio = max
	}
}

// WithCountdown overrides the auto-capture countdown length in seconds.
func WithCountdown(seconds int) Option {
	return func(o *Options) {
		if seconds > 0 {
			o.CountdownSeconds = seconds
		}
	}
}

// WithStreamPrefs overrides the camera configuration hints.
func WithStreamPrefs(prefs StreamPrefs) Option {
	return func(o *Options) { o.StreamPrefs = prefs }
}
