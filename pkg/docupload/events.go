package docupload

import (
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/errx"
)

// Stage is where one file currently is in the pipeline.
type Stage string

const (
	StageValidating Stage = "validating"
	StageAssessing  Stage = "assessing"
	StageStoring    Stage = "storing"
	StageUploading  Stage = "uploading"
	StageCompleted  Stage = "completed"

	// StageRejected means validation failed before any network activity;
	// no record exists.
	StageRejected Stage = "rejected"

	// StageDegraded means the remote side failed after capture; the record
	// exists with ocr marked failed and flagged for review.
	StageDegraded Stage = "degraded"
)

// Progress reports per-file pipeline movement. Batches run sequentially, so
// events for file N+1 never interleave with file N.
type Progress struct {
	Index    int
	Total    int
	FileName string
	Stage    Stage
	Record   *doccollect.DocumentRecord
	Err      *errx.Error
}

// ProgressHandler receives progress events.
type ProgressHandler func(Progress)
