package ocrmap

// Review thresholds: below either, a human must verify the extraction.
const (
	MinFieldConfidence = 75.0
	MinQualityScore    = 70
)

// AverageConfidence returns the mean of the per-field confidences, or 0 for
// an empty set.
func AverageConfidence(confidences map[string]float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// RequiresReview applies the review rule: low average field confidence, low
// image quality, or a failed OCR run all route the document to a human
// reviewer.
func RequiresReview(avgConfidence float64, qualityScore int, ocrFailed bool) bool {
	return ocrFailed || avgConfidence < MinFieldConfidence || qualityScore < MinQualityScore
}
