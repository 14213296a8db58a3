// Package docupload runs the capture-to-record pipeline: local validation,
// classification and quality assessment, storage, remote upload with OCR,
// and the degrade-on-failure rules that keep a capture from ever being lost
// to a downstream outage.
package docupload

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/fsx"
	"github.com/relayhr/doccapture/pkg/jobx"
	"github.com/relayhr/doccapture/pkg/kernel"
	"github.com/relayhr/doccapture/pkg/logx"
	"github.com/relayhr/doccapture/pkg/ocrclient"
	"github.com/relayhr/doccapture/pkg/ocrmap"
)

// ReprocessJobType names the background job that re-runs OCR.
const ReprocessJobType = "ocr.reprocess"

// RemoteService is the document-storage/OCR collaborator.
type RemoteService interface {
	Upload(ctx context.Context, req ocrclient.UploadRequest) (*ocrclient.UploadResponse, *errx.Error)
	Reprocess(ctx context.Context, req ocrclient.ReprocessRequest) (*ocrclient.ReprocessResponse, *errx.Error)
}

// FileInput is one incoming file from capture or file selection.
type FileInput struct {
	Name      string
	MediaType string
	Data      []byte
}

// Outcome is the per-file result of a batch. Rejected files carry Err and no
// record; degraded files carry a record whose OCR is marked failed.
type Outcome struct {
	Record   *doccollect.DocumentRecord
	Err      *errx.Error
	Degraded bool
}

// Orchestrator drives the pipeline for one session's collection.
type Orchestrator struct {
	sessionID  kernel.SessionID
	language   string
	collection *doccollect.Collection
	storage    fsx.FileSystem
	remote     RemoteService
	assessor   *docquality.Assessor
	jobs       *jobx.Client
	opts       Options
	onProgress ProgressHandler
}

// NewOrchestrator wires the pipeline. jobs may be nil, in which case OCR
// reprocessing runs inline instead of on the queue.
func NewOrchestrator(
	sessionID kernel.SessionID,
	language string,
	collection *doccollect.Collection,
	storage fsx.FileSystem,
	remote RemoteService,
	jobs *jobx.Client,
	opts ...Option,
) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Orchestrator{
		sessionID:  sessionID,
		language:   language,
		collection: collection,
		storage:    storage,
		remote:     remote,
		assessor:   docquality.NewAssessor(o.Quality...),
		jobs:       jobs,
		opts:       o,
	}
}

// OnProgress registers the per-file progress subscriber.
func (o *Orchestrator) OnProgress(h ProgressHandler) { o.onProgress = h }

// Process runs the batch sequentially: one file completes its whole pipeline
// before the next starts, so a slow document serializes the ones behind it
// in exchange for deterministic progress ordering.
func (o *Orchestrator) Process(ctx context.Context, batch []FileInput) []Outcome {
	outcomes := make([]Outcome, 0, len(batch))
	for i, file := range batch {
		outcomes = append(outcomes, o.processOne(ctx, file, i, len(batch)))
	}
	return outcomes
}

func (o *Orchestrator) processOne(ctx context.Context, file FileInput, index, total int) Outcome {
	o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageValidating})

	if err := o.validate(file); err != nil {
		o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageRejected, Err: err})
		return Outcome{Err: err}
	}

	// Classification and quality run synchronously, before any network
	// activity.
	o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageAssessing})
	category := docclassify.Classify(file.Name)
	quality := o.assessor.Assess(file.Data)

	source := doccollect.SourceFile{
		Name:      file.Name,
		MediaType: file.MediaType,
		Size:      int64(len(file.Data)),
		Data:      file.Data,
	}
	record := doccollect.NewRecord(source, category, nil, quality)
	if o.opts.Previews != nil {
		record.Preview = o.opts.Previews(record.ID, source)
	}
	record.OCR = &doccollect.OCRBlock{Status: doccollect.OCRPending}

	// The record enters the collection before any remote call: capture is
	// never lost to a downstream failure.
	if err := o.collection.Add(record); err != nil {
		o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageRejected, Err: err})
		return Outcome{Err: err}
	}

	return o.dispatch(ctx, record, index, total)
}

// IngestRecord stores and uploads an already-assembled record. The
// enhancement path uses it: quality there comes from the enhancer's bump
// rules, not a fresh assessment.
func (o *Orchestrator) IngestRecord(ctx context.Context, record *doccollect.DocumentRecord) Outcome {
	if record.Preview == nil && o.opts.Previews != nil {
		record.Preview = o.opts.Previews(record.ID, record.Source)
	}
	if record.OCR == nil {
		record.OCR = &doccollect.OCRBlock{Status: doccollect.OCRPending}
	}
	if err := o.collection.Add(record); err != nil {
		return Outcome{Err: err}
	}
	return o.dispatch(ctx, record, 0, 1)
}

// dispatch runs the storage and remote half of the pipeline for a record
// already in the collection.
func (o *Orchestrator) dispatch(ctx context.Context, record *doccollect.DocumentRecord, index, total int) Outcome {
	file := record.Source
	o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageStoring, Record: record})
	if err := o.store(ctx, record); err != nil {
		logx.WithError(err).WithField("document_id", record.ID.String()).
			Warn("docupload: storing binary failed")
		o.degrade(record)
		o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageDegraded, Record: record, Err: errx.Wrap(err, "storage failed", errx.TypeExternal)})
		return Outcome{Record: record, Degraded: true}
	}

	o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageUploading, Record: record})
	o.markProcessing(record.ID)

	resp, upErr := o.remote.Upload(ctx, ocrclient.UploadRequest{
		SessionID: o.sessionID,
		FileName:  file.Name,
		MediaType: file.MediaType,
		Data:      file.Data,
		Category:  record.Category,
	})
	if upErr != nil {
		logx.WithError(upErr).WithField("document_id", record.ID.String()).
			Warn("docupload: remote upload failed, keeping degraded record")
		o.degrade(record)
		o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageDegraded, Record: record, Err: upErr})
		return Outcome{Record: record, Degraded: true}
	}

	o.applyResult(record.ID, resp.DocumentID, resp.OCR)
	o.emit(Progress{Index: index, Total: total, FileName: file.Name, Stage: StageCompleted, Record: record})
	return Outcome{Record: record}
}

// validate enforces the local gates: images or PDFs only, within the size
// ceiling. Runs before any network activity.
func (o *Orchestrator) validate(file FileInput) *errx.Error {
	mediaType := strings.ToLower(strings.TrimSpace(file.MediaType))
	if !strings.HasPrefix(mediaType, "image/") && mediaType != "application/pdf" {
		return uploadErrors.New(ErrUnsupportedType).WithDetail("media_type", file.MediaType)
	}
	if len(file.Data) == 0 {
		return uploadErrors.New(ErrEmptyFile).WithDetail("file", file.Name)
	}
	if int64(len(file.Data)) > o.opts.MaxFileSize {
		return uploadErrors.New(ErrFileTooLarge).
			WithDetail("file", file.Name).
			WithDetail("size", len(file.Data)).
			WithDetail("max", o.opts.MaxFileSize)
	}
	return nil
}

// storageKey is where a record's binary lives, rooted per session.
func (o *Orchestrator) storageKey(id kernel.DocumentID, name string) string {
	ext := path.Ext(name)
	return o.storage.Join(o.opts.StoragePrefix, o.sessionID.String(), id.String()+ext)
}

func (o *Orchestrator) store(ctx context.Context, record *doccollect.DocumentRecord) error {
	key := o.storageKey(record.ID, record.Source.Name)
	return o.storage.WriteFile(ctx, key, record.Source.Data)
}

func (o *Orchestrator) markProcessing(id kernel.DocumentID) {
	_ = o.collection.Update(id, func(r *doccollect.DocumentRecord) {
		if r.OCR != nil && r.OCR.Status == doccollect.OCRPending {
			r.OCR.Status = doccollect.OCRProcessing
		}
	})
}

// degrade marks the record's OCR failed and flags it for review; the quality
// verdict computed before the failure stays intact.
func (o *Orchestrator) degrade(record *doccollect.DocumentRecord) {
	_ = o.collection.Update(record.ID, func(r *doccollect.DocumentRecord) {
		if r.OCR == nil {
			r.OCR = &doccollect.OCRBlock{}
		}
		r.OCR.Status = doccollect.OCRFailed
		r.OCR.RequiresReview = true
	})
}

// applyResult merges a remote OCR result into the record: fields normalized
// through the mapper, review rule recomputed, status settled exactly once.
func (o *Orchestrator) applyResult(id kernel.DocumentID, remoteID string, result *ocrclient.OCRResult) {
	_ = o.collection.Update(id, func(r *doccollect.DocumentRecord) {
		if r.OCR == nil {
			r.OCR = &doccollect.OCRBlock{}
		}
		r.OCR.RemoteID = remoteID

		if result == nil {
			// Extraction deferred by the service; the record stays in
			// processing until a reprocess delivers fields.
			r.OCR.Status = doccollect.OCRProcessing
			return
		}

		fields := ocrmap.Normalize(result.ExtractedData)
		confidences := ocrmap.NormalizeConfidences(result.FieldConfidences)
		failed := strings.EqualFold(result.ProcessingStatus, "failed")

		r.OCR.ExtractedFields = fields
		r.OCR.ConfidenceByField = confidences
		r.OCR.RawText = result.RawText
		if failed {
			r.OCR.Status = doccollect.OCRFailed
		} else {
			r.OCR.Status = doccollect.OCRCompleted
		}
		r.OCR.RequiresReview = ocrmap.RequiresReview(
			ocrmap.AverageConfidence(confidences), r.Quality.Score, failed)
	})
}

func (o *Orchestrator) emit(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

// ReprocessJob is the jobx payload for queued OCR reruns. SessionID lets a
// shared worker dispatch the job back to the owning session.
type ReprocessJob struct {
	SessionID  string `json:"sessionId"`
	DocumentID string `json:"documentId"`
	RemoteID   string `json:"remoteId"`
	Language   string `json:"language"`
}

// RequestReprocess re-runs extraction for a stored document, typically after
// a language change or to recover a degraded record. With a job client the
// work is queued; without one it runs inline.
func (o *Orchestrator) RequestReprocess(ctx context.Context, id kernel.DocumentID, language string) *errx.Error {
	record, ok := o.collection.Get(id)
	if !ok {
		return errx.NotFound("document not found")
	}
	if record.OCR == nil {
		return uploadErrors.New(ErrNoOCRBlock)
	}
	if record.OCR.RemoteID == "" {
		return uploadErrors.New(ErrNoRemoteID)
	}
	if language == "" {
		language = o.language
	}

	if o.jobs == nil {
		return o.reprocess(ctx, id, record.OCR.RemoteID, language)
	}

	payload, err := json.Marshal(ReprocessJob{
		SessionID:  o.sessionID.String(),
		DocumentID: id.String(),
		RemoteID:   record.OCR.RemoteID,
		Language:   language,
	})
	if err != nil {
		return errx.Wrap(err, "encoding reprocess job failed", errx.TypeInternal)
	}
	_, enqErr := o.jobs.Enqueue(ctx, jobx.Job{Type: ReprocessJobType, Payload: payload})
	return enqErr
}

// ReprocessHandler returns the jobx handler that executes queued reruns.
// Register it once under ReprocessJobType.
func (o *Orchestrator) ReprocessHandler() jobx.HandlerFunc {
	return func(ctx context.Context, job *jobx.Record) error {
		var p ReprocessJob
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		if err := o.reprocess(ctx, kernel.NewDocumentID(p.DocumentID), p.RemoteID, p.Language); err != nil {
			return err
		}
		return nil
	}
}

func (o *Orchestrator) reprocess(ctx context.Context, id kernel.DocumentID, remoteID, language string) *errx.Error {
	resp, err := o.remote.Reprocess(ctx, ocrclient.ReprocessRequest{DocumentID: remoteID, Language: language})
	if err != nil {
		// Same degradation rule as the first pass: the record survives,
		// flagged for review.
		_ = o.collection.Update(id, func(r *doccollect.DocumentRecord) {
			if r.OCR == nil {
				r.OCR = &doccollect.OCRBlock{RemoteID: remoteID}
			}
			r.OCR.Status = doccollect.OCRFailed
			r.OCR.RequiresReview = true
		})
		return err
	}
	o.applyResult(id, remoteID, resp.OCR)
	return nil
}
