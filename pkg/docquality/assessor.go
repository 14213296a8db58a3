// Package docquality scores a captured document image for usability without
// any server round-trip. The score drives auto-capture feedback, enhancement
// hints and the requires-review rule downstream.
package docquality

import (
	"github.com/relayhr/doccapture/pkg/imaging"
)

// Penalty weights per triggered condition. The score starts at 100 and
// accumulates these, clamped to [0, 100].
const (
	penaltyLowResolution = 20
	penaltyFileTooSmall  = 15
	penaltyFileTooLarge  = 10
	penaltyTooDark       = 20
	penaltyTooBright     = 15
	penaltyLowContrast   = 15
	penaltyBlurry        = 25
)

// Assessor computes quality reports. Safe for concurrent use; it holds only
// immutable configuration.
type Assessor struct {
	opts Options
}

// NewAssessor creates an assessor with the default thresholds, adjusted by
// the given options.
func NewAssessor(opts ...Option) *Assessor {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Assessor{opts: o}
}

// Assess scores the encoded image. Deterministic for a given input: the
// sharpness sampling pattern is seeded, not random. An undecodable input
// yields the terminal score-0 report rather than an error; there is nothing
// to retry for that file.
func (a *Assessor) Assess(data []byte) Report {
	pix, err := imaging.Decode(data)
	if err != nil {
		return Report{
			Score:           0,
			Issues:          []string{IssueUndecodable},
			Recommendations: []string{recUndecodable},
		}
	}
	return a.assessPixels(pix, len(data))
}

// assessPixels runs the signal passes over decoded pixels. fileSize is the
// encoded payload size used for the size gates.
func (a *Assessor) assessPixels(pix *imaging.Pixmap, fileSize int) Report {
	penalty := 0
	var issues, recs []string

	flag := func(p int, issue, rec string) {
		penalty += p
		issues = append(issues, issue)
		recs = append(recs, rec)
	}

	// 1. Resolution gate on the original dimensions.
	if pix.Width < a.opts.MinWidth || pix.Height < a.opts.MinHeight {
		flag(penaltyLowResolution, IssueLowResolution, recLowResolution)
	}

	// 2. File size band.
	if fileSize < a.opts.MinFileSize {
		flag(penaltyFileTooSmall, IssueFileTooSmall, recFileTooSmall)
	} else if fileSize > a.opts.MaxFileSize {
		flag(penaltyFileTooLarge, IssueFileTooLarge, recFileTooLarge)
	}

	// Pixel passes run on a bounded working resolution.
	work := pix.Downscale(a.opts.WorkingMaxWidth, a.opts.WorkingMaxHeight)

	// 3. Exposure.
	mean := work.MeanLuminance()
	if mean < a.opts.DarkThreshold {
		flag(penaltyTooDark, IssueTooDark, recTooDark)
	} else if mean > a.opts.BrightThreshold {
		flag(penaltyTooBright, IssueTooBright, recTooBright)
	}

	// 4. Contrast proxy: luminance spread.
	if work.LuminanceRange() < a.opts.MinContrast {
		flag(penaltyLowContrast, IssueLowContrast, recLowContrast)
	}

	// 5. Sharpness from seeded pair sampling.
	ratio := work.SampledEdgeRatio(a.opts.SharpnessSamples, a.opts.SharpnessJump, a.opts.SampleSeed)
	if ratio < a.opts.MinEdgeRatio {
		flag(penaltyBlurry, IssueBlurry, recBlurry)
	}

	score := 100 - penalty
	if score < 0 {
		score = 0
	}

	if len(issues) == 0 {
		return Report{Score: score, Issues: []string{}, Recommendations: []string{RecGoodQuality}}
	}
	return Report{Score: score, Issues: issues, Recommendations: recs}
}
