package docquality

// Options holds the thresholds and penalties of the assessment pipeline.
type Options struct {
	// Resolution gate.
	MinWidth  int
	MinHeight int

	// File size gates in bytes.
	MinFileSize int
	MaxFileSize int

	// Bounded working resolution for the pixel passes.
	WorkingMaxWidth  int
	WorkingMaxHeight int

	// Mean luminance band, 0–255.
	DarkThreshold   float64
	BrightThreshold float64

	// Minimum luminance spread (max−min) before the image counts as flat.
	MinContrast float64

	// Sharpness estimation: sampled pixel pairs, luma jump threshold and
	// the minimum edge ratio below which the image is flagged blurry.
	SharpnessSamples int
	SharpnessJump    float64
	MinEdgeRatio     float64

	// SampleSeed fixes the sampling pattern so scoring is reproducible.
	SampleSeed uint64
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		MinWidth:         1000,
		MinHeight:        700,
		MinFileSize:      200 * 1024,
		MaxFileSize:      5 * 1024 * 1024,
		WorkingMaxWidth:  1200,
		WorkingMaxHeight: 900,
		DarkThreshold:    60,
		BrightThreshold:  200,
		MinContrast:      50,
		SharpnessSamples: 2000,
		SharpnessJump:    25,
		MinEdgeRatio:     0.04,
		SampleSeed:       0x5eed,
	}
}

// Option mutates assessment options.
type Option func(*Options)

// WithResolutionGate overrides the minimum accepted dimensions.
func WithResolutionGate(minWidth, minHeight int) Option {
	return func(o *Options) {
		o.MinWidth = minWidth
		o.MinHeight = minHeight
	}
}

// WithFileSizeGate overrides the accepted file size band.
func WithFileSizeGate(minBytes, maxBytes int) Option {
	return func(o *Options) {
		o.MinFileSize = minBytes
		o.MaxFileSize = maxBytes
	}
}

// WithLuminanceBand overrides the dark/bright mean luminance thresholds.
func WithLuminanceBand(dark, bright float64) Option {
	return func(o *Options) {
		o.DarkThreshold = dark
		o.BrightThreshold = bright
	}
}

// WithSharpness overrides the sharpness sampling parameters.
func WithSharpness(samples int, jump, minRatio float64) Option {
	return func(o *Options) {
		o.SharpnessSamples = samples
		o.SharpnessJump = jump
		o.MinEdgeRatio = minRatio
	}
}

// WithSampleSeed overrides the deterministic sampling seed.
func WithSampleSeed(seed uint64) Option {
	return func(o *Options) { o.SampleSeed = seed }
}
