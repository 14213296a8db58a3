// Package docstep is the document-capture step of the onboarding wizard: one
// session owning a document collection and its upload pipeline, enforcing
// the step's limits and telling the wizard when the user may continue.
package docstep

import (
	"context"
	"strings"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/docenhance"
	"github.com/relayhr/doccapture/pkg/docupload"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/fsx"
	"github.com/relayhr/doccapture/pkg/jobx"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// Config is the wizard host's contract for one capture step.
type Config struct {
	// Language localizes labels and OCR requests, "en" or "es".
	Language string

	// MaxDocuments caps the collection size; zero means unlimited.
	MaxDocuments int

	// AllowedCategories restricts what the step accepts; empty means all.
	AllowedCategories []docclassify.Category
}

// Change is emitted to the wizard on every collection mutation.
type Change struct {
	Records []*doccollect.DocumentRecord

	// CanContinue is true only when at least one document exists.
	CanContinue bool
}

// ChangeHandler receives collection changes.
type ChangeHandler func(Change)

// Session is one collaborator instance: it owns the collection and the
// orchestrator and applies the step's admission rules before anything enters
// the pipeline.
type Session struct {
	id           kernel.SessionID
	cfg          Config
	collection   *doccollect.Collection
	orchestrator *docupload.Orchestrator
	enhancer     *docenhance.Enhancer
	onChange     ChangeHandler
}

// NewSession assembles a session over the given storage and remote service.
// jobs may be nil; OCR reprocessing then runs inline.
func NewSession(
	id kernel.SessionID,
	cfg Config,
	storage fsx.FileSystem,
	remote docupload.RemoteService,
	jobs *jobx.Client,
	opts ...docupload.Option,
) *Session {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	collection := doccollect.NewCollection()
	return &Session{
		id:           id,
		cfg:          cfg,
		collection:   collection,
		orchestrator: docupload.NewOrchestrator(id, cfg.Language, collection, storage, remote, jobs, opts...),
		enhancer:     docenhance.NewEnhancer(0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() kernel.SessionID { return s.id }

// Language returns the session language.
func (s *Session) Language() string { return s.cfg.Language }

// Collection exposes the underlying collection for read paths.
func (s *Session) Collection() *doccollect.Collection { return s.collection }

// OnChange registers the wizard's change subscriber.
func (s *Session) OnChange(h ChangeHandler) { s.onChange = h }

// OnProgress registers the per-file upload progress subscriber.
func (s *Session) OnProgress(h docupload.ProgressHandler) { s.orchestrator.OnProgress(h) }

// ReprocessHandler exposes the queued-OCR handler for worker registration.
func (s *Session) ReprocessHandler() jobx.HandlerFunc { return s.orchestrator.ReprocessHandler() }

// CanContinue reports whether the wizard may advance past this step.
func (s *Session) CanContinue() bool { return s.collection.Len() > 0 }

// AddFiles admits and processes a batch. Admission rules run per file before
// the pipeline: the session limit and the allowed-category list. Each file
// gets its own outcome; one rejection never blocks the rest of the batch.
// A change event is emitted as each record enters the collection, so wizard
// subscribers see the list grow file by file.
func (s *Session) AddFiles(ctx context.Context, files []docupload.FileInput) []docupload.Outcome {
	outcomes := make([]docupload.Outcome, 0, len(files))
	for _, file := range files {
		if err := s.admit(file); err != nil {
			outcomes = append(outcomes, docupload.Outcome{Err: err})
			continue
		}
		result := s.orchestrator.Process(ctx, []docupload.FileInput{file})
		outcomes = append(outcomes, result[0])
		if result[0].Record != nil {
			s.emitChange()
		}
	}
	return outcomes
}

func (s *Session) admit(file docupload.FileInput) *errx.Error {
	if s.cfg.MaxDocuments > 0 && s.collection.Len() >= s.cfg.MaxDocuments {
		return stepErrors.New(ErrMaxDocuments).WithDetail("max", s.cfg.MaxDocuments)
	}
	if len(s.cfg.AllowedCategories) > 0 {
		category := docclassify.Classify(file.Name)
		allowed := false
		for _, c := range s.cfg.AllowedCategories {
			if c == category {
				allowed = true
				break
			}
		}
		if !allowed {
			return stepErrors.New(ErrCategoryNotAllowed).
				WithDetail("category", category.String())
		}
	}
	return nil
}

// Remove deletes one document.
func (s *Session) Remove(id kernel.DocumentID) *errx.Error {
	if err := s.collection.Remove(id); err != nil {
		return err
	}
	s.emitChange()
	return nil
}

// ToggleSelect flips a document's multi-select state.
func (s *Session) ToggleSelect(id kernel.DocumentID) (bool, *errx.Error) {
	return s.collection.ToggleSelect(id)
}

// ClearSelection empties the multi-select state.
func (s *Session) ClearSelection() { s.collection.ClearSelection() }

// DeleteSelected bulk-deletes the current selection.
func (s *Session) DeleteSelected(confirmed bool) (int, *errx.Error) {
	n, err := s.collection.DeleteSelected(confirmed)
	if err != nil {
		return 0, err
	}
	s.emitChange()
	return n, nil
}

// View computes a derived view, localized to the session language.
func (s *Session) View(q doccollect.Query) []*doccollect.DocumentRecord {
	if q.Language == "" {
		q.Language = s.cfg.Language
	}
	return s.collection.View(q)
}

// Enhance produces a new, separate document from an existing image record:
// brightness, contrast and sharpening applied, quality recomputed under the
// enhancer's rules, and the result pushed through storage and upload like
// any other capture.
func (s *Session) Enhance(ctx context.Context, id kernel.DocumentID, params docenhance.Params) (docupload.Outcome, *errx.Error) {
	record, ok := s.collection.Get(id)
	if !ok {
		return docupload.Outcome{}, errx.NotFound("document not found")
	}
	if !strings.HasPrefix(strings.ToLower(record.Source.MediaType), "image/") {
		return docupload.Outcome{}, stepErrors.New(ErrNotEnhanceable).
			WithDetail("media_type", record.Source.MediaType)
	}
	if s.cfg.MaxDocuments > 0 && s.collection.Len() >= s.cfg.MaxDocuments {
		return docupload.Outcome{}, stepErrors.New(ErrMaxDocuments).WithDetail("max", s.cfg.MaxDocuments)
	}

	result, err := s.enhancer.Enhance(record.Source.Data, record.Quality, params)
	if err != nil {
		return docupload.Outcome{}, err
	}

	source := doccollect.SourceFile{
		Name:      enhancedName(record.Source.Name),
		MediaType: "image/jpeg",
		Size:      int64(len(result.Data)),
		Data:      result.Data,
	}
	enhanced := doccollect.NewRecord(source, record.Category, nil, result.Quality)
	outcome := s.orchestrator.IngestRecord(ctx, enhanced)
	s.emitChange()
	return outcome, outcome.Err
}

// RequestReprocess re-runs OCR for one document in the session language.
func (s *Session) RequestReprocess(ctx context.Context, id kernel.DocumentID, language string) *errx.Error {
	if language == "" {
		language = s.cfg.Language
	}
	return s.orchestrator.RequestReprocess(ctx, id, language)
}

// Close ends the session, releasing every preview handle.
func (s *Session) Close() {
	s.collection.Clear()
	s.emitChange()
}

func (s *Session) emitChange() {
	if s.onChange == nil {
		return
	}
	s.onChange(Change{Records: s.collection.Records(), CanContinue: s.CanContinue()})
}

func enhancedName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i] + "_enhanced.jpg"
	}
	return name + "_enhanced.jpg"
}
