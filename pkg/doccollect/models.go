// Package doccollect holds the set of captured documents for one onboarding
// session and the derived search/filter/sort views over it.
package doccollect

import (
	"time"

	"github.com/google/uuid"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// SourceFile is the captured binary and its declared metadata. Immutable once
// set on a record: enhancement produces a new record, never rewrites this.
type SourceFile struct {
	Name      string
	MediaType string
	Size      int64
	Data      []byte
}

// PreviewHandle is a transient, locally resolvable reference to a record's
// binary for rendering. It is a resource, not data: whoever removes the
// record must release it.
type PreviewHandle interface {
	URI() string
	Release()
}

// OCRStatus tracks the remote text extraction for one record. It transitions
// pending -> processing -> completed or failed exactly once; retries are the
// orchestrator's business and never rewind a record's status.
type OCRStatus string

const (
	OCRPending    OCRStatus = "pending"
	OCRProcessing OCRStatus = "processing"
	OCRCompleted  OCRStatus = "completed"
	OCRFailed     OCRStatus = "failed"
)

// OCRBlock is the extraction result attached to a record once upload
// completes. RemoteID is the document id issued by the storage service and
// keys any later reprocessing.
type OCRBlock struct {
	RemoteID          string
	ExtractedFields   map[string]string
	ConfidenceByField map[string]float64
	RawText           string
	Status            OCRStatus
	RequiresReview    bool
}

// DocumentRecord is the unit of work: one captured document with its quality
// verdict and, after upload, its OCR block.
type DocumentRecord struct {
	ID         kernel.DocumentID
	Source     SourceFile
	Category   docclassify.Category
	Preview    PreviewHandle
	Quality    docquality.Report
	OCR        *OCRBlock
	CapturedAt time.Time
}

// NewRecord assembles a record with a fresh id and capture timestamp. IDs
// are uuids, never reused within a session.
func NewRecord(source SourceFile, category docclassify.Category, preview PreviewHandle, quality docquality.Report) *DocumentRecord {
	return &DocumentRecord{
		ID:         kernel.NewDocumentID(uuid.NewString()),
		Source:     source,
		Category:   category,
		Preview:    preview,
		Quality:    quality,
		CapturedAt: time.Now().UTC(),
	}
}

func (r *DocumentRecord) releasePreview() {
	if r.Preview != nil {
		r.Preview.Release()
	}
}
