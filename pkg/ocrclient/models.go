package ocrclient

import (
	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// OCRResult is the extraction payload the document service returns. Field
// keys arrive raw; callers normalize them through ocrmap.
type OCRResult struct {
	ExtractedData    map[string]string  `json:"extractedData"`
	FieldConfidences map[string]float64 `json:"fieldConfidences"`
	RawText          string             `json:"rawText"`
	ProcessingStatus string             `json:"processingStatus"`
}

// UploadRequest is one document binary plus its ingestion metadata.
type UploadRequest struct {
	SessionID kernel.SessionID
	FileName  string
	MediaType string
	Data      []byte
	Category  docclassify.Category
}

// UploadResponse acknowledges the stored document. OCR is nil when the
// service deferred extraction.
type UploadResponse struct {
	DocumentID string     `json:"documentId"`
	OCR        *OCRResult `json:"ocrResult,omitempty"`
}

// ReprocessRequest asks the service to re-run extraction on a stored
// document, typically after a session language change.
type ReprocessRequest struct {
	DocumentID string `json:"documentId"`
	Language   string `json:"language"`
}

// ReprocessResponse carries the fresh extraction.
type ReprocessResponse struct {
	OCR *OCRResult `json:"ocrResult"`
}
