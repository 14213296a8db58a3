// Package docenhance applies local brightness/contrast and sharpening fixes
// to a captured document image. Enhancement is assumed, not verified, to
// help: the resulting quality report is bumped heuristically rather than
// re-derived from scratch.
package docenhance

import (
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/imaging"
)

// Params are the enhancement deltas. The product applies fixed defaults;
// these are not user-tunable sliders.
type Params struct {
	// Brightness is a linear channel offset in [-255, 255].
	Brightness float64
	// Contrast is the delta fed to the standard contrast factor transform,
	// in [-255, 255].
	Contrast float64
	// SharpenStrength scales the convolution center weight; 0 disables the
	// sharpening pass.
	SharpenStrength float64
}

// DefaultParams are the fixed deltas used by the onboarding flow.
func DefaultParams() Params {
	return Params{Brightness: 10, Contrast: 15, SharpenStrength: 40}
}

// Score bumps credited per applied pass, capped at 100 overall.
const (
	toneBump    = 8
	sharpenBump = 7
)

// issues the passes are assumed to address; they are dropped from the
// bumped report.
var addressedIssues = map[string]bool{
	docquality.IssueTooDark:     true,
	docquality.IssueLowContrast: true,
	docquality.IssueBlurry:      true,
}

// Result is the outcome of one enhancement: a freshly encoded image and its
// bumped quality report. The caller wraps it in a new document record; the
// source record is never mutated.
type Result struct {
	Data    []byte
	Quality docquality.Report
}

// Enhancer re-encodes at the capture quality factor so enhanced files stay
// comparable in size to captures.
type Enhancer struct {
	jpegQuality int
}

// NewEnhancer creates an enhancer encoding at the given JPEG quality factor.
func NewEnhancer(jpegQuality int) *Enhancer {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 85
	}
	return &Enhancer{jpegQuality: jpegQuality}
}

// Enhance runs the pixel pipeline over source and returns the new encoding
// plus the bumped report. Single-shot and non-reentrant per source record;
// callers must serialize concurrent requests against the same record.
func (e *Enhancer) Enhance(source []byte, sourceQuality docquality.Report, params Params) (*Result, *errx.Error) {
	pix, err := imaging.Decode(source)
	if err != nil {
		return nil, enhanceErrors.NewWithCause(ErrUndecodable, err)
	}

	pix.AdjustBrightnessContrast(params.Brightness, params.Contrast)
	if params.SharpenStrength > 0 {
		pix.Sharpen(params.SharpenStrength)
	}

	data, err := pix.EncodeJPEG(e.jpegQuality)
	if err != nil {
		return nil, enhanceErrors.NewWithCause(ErrEncodeFailed, err)
	}

	return &Result{Data: data, Quality: bumpReport(sourceQuality, params)}, nil
}

// bumpReport credits the applied passes against the source score and drops
// the issues they target. The score never decreases and never exceeds 100.
func bumpReport(src docquality.Report, params Params) docquality.Report {
	score := src.Score
	if params.Brightness != 0 || params.Contrast != 0 {
		score += toneBump
	}
	if params.SharpenStrength > 0 {
		score += sharpenBump
	}
	if score > 100 {
		score = 100
	}

	issues := make([]string, 0, len(src.Issues))
	recs := make([]string, 0, len(src.Recommendations))
	for i, issue := range src.Issues {
		if addressedIssues[issue] {
			continue
		}
		issues = append(issues, issue)
		if i < len(src.Recommendations) {
			recs = append(recs, src.Recommendations[i])
		}
	}

	if len(issues) == 0 {
		// Same canonical clean shape the assessor produces.
		return docquality.Report{Score: score, Issues: issues, Recommendations: []string{docquality.RecGoodQuality}}
	}
	return docquality.Report{Score: score, Issues: issues, Recommendations: recs}
}
