package docquality

// Report is the usability assessment of one captured document image.
// Exactly one Report exists per source file at any time; enhancement
// produces a fresh one.
type Report struct {
	// Score is the 0–100 usability rating.
	Score int `json:"score"`

	// Issues lists the triggered problems, in evaluation order.
	Issues []string `json:"issues"`

	// Recommendations pairs one actionable hint with each issue.
	Recommendations []string `json:"recommendations"`
}

// IsUsable reports whether the score clears the review threshold used by
// the requires-review rule.
func (r Report) IsUsable() bool { return r.Score >= 70 }

// Issue and recommendation texts. Downstream consumers and the wizard UI
// match on these strings, so they are part of the contract.
const (
	IssueUndecodable   = "Could not load image"
	IssueLowResolution = "Low resolution"
	IssueFileTooSmall  = "File too small"
	IssueFileTooLarge  = "File too large"
	IssueTooDark       = "Image too dark"
	IssueTooBright     = "Image too bright"
	IssueLowContrast   = "Low contrast"
	IssueBlurry        = "Image appears blurry"

	// RecGoodQuality is the single recommendation of a clean report. It is
	// exported so other report producers emit the same canonical shape.
	RecGoodQuality = "Image quality is good"

	recUndecodable   = "Re-capture or re-upload the document"
	recLowResolution = "Move closer to the document or use a higher resolution camera"
	recFileTooSmall  = "Capture at a higher quality setting"
	recFileTooLarge  = "Reduce the capture resolution or compress the image"
	recTooDark       = "Retake the photo with more lighting"
	recTooBright     = "Avoid direct light or flash glare on the document"
	recLowContrast   = "Place the document on a contrasting background"
	recBlurry        = "Hold the camera steady and refocus before capturing"
)
