package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/docenhance"
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/docstep"
	"github.com/relayhr/doccapture/pkg/docupload"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// registerRoutes wires the document-step API.
func registerRoutes(app *fiber.App, c *Container) {
	api := app.Group("/api/v1", sessionAuth(c.Config.Auth.SessionTokenSecret))

	api.Post("/sessions", createSessionHandler(c))
	api.Delete("/sessions/:sessionID", endSessionHandler(c))

	api.Post("/sessions/:sessionID/documents", uploadDocumentsHandler(c))
	api.Get("/sessions/:sessionID/documents", listDocumentsHandler(c))
	api.Delete("/sessions/:sessionID/documents", bulkDeleteHandler(c))

	api.Get("/sessions/:sessionID/documents/:id/raw", rawDocumentHandler(c))
	api.Post("/sessions/:sessionID/documents/:id/select", toggleSelectHandler(c))
	api.Post("/sessions/:sessionID/documents/:id/enhance", enhanceHandler(c))
	api.Post("/sessions/:sessionID/documents/:id/ocr", reprocessHandler(c))
	api.Delete("/sessions/:sessionID/documents/:id", deleteDocumentHandler(c))

	api.Post("/assess", assessHandler())
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

type createSessionRequest struct {
	Language          string   `json:"language"`
	MaxDocuments      int      `json:"maxDocuments"`
	AllowedCategories []string `json:"allowedCategories"`
}

func createSessionHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sc := requestSession(ctx)

		var req createSessionRequest
		if len(ctx.Body()) > 0 {
			if err := ctx.BodyParser(&req); err != nil {
				return errx.Wrap(err, "Invalid session configuration", errx.TypeValidation)
			}
		}
		if req.Language == "" {
			req.Language = sc.Language
		}

		var allowed []docclassify.Category
		for _, raw := range req.AllowedCategories {
			category := docclassify.Category(raw)
			if !category.IsValid() {
				return errx.Validation(fmt.Sprintf("Unknown document category %q", raw))
			}
			allowed = append(allowed, category)
		}

		session := c.Sessions.Create(sc.SessionID, docstep.Config{
			Language:          req.Language,
			MaxDocuments:      req.MaxDocuments,
			AllowedCategories: allowed,
		})
		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"sessionId":   session.ID().String(),
			"language":    session.Language(),
			"canContinue": session.CanContinue(),
		})
	}
}

func endSessionHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := requireSessionMatch(ctx)
		if err != nil {
			return err
		}
		if !c.Sessions.End(id) {
			return errx.NotFound("Session not found")
		}
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

func getSession(ctx *fiber.Ctx, c *Container) (*docstep.Session, error) {
	id, err := requireSessionMatch(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := c.Sessions.Get(id)
	if !ok {
		return nil, errx.NotFound("Session not found")
	}
	return session, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func uploadDocumentsHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}

		form, formErr := ctx.MultipartForm()
		if formErr != nil {
			return errx.Wrap(formErr, "Expected a multipart upload", errx.TypeValidation)
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			return errx.Validation("No files in upload")
		}

		batch := make([]docupload.FileInput, 0, len(headers))
		for _, h := range headers {
			data, readErr := readUpload(h)
			if readErr != nil {
				return readErr
			}
			batch = append(batch, docupload.FileInput{
				Name:      h.Filename,
				MediaType: h.Header.Get("Content-Type"),
				Data:      data,
			})
		}

		outcomes := session.AddFiles(ctx.Context(), batch)
		results := make([]fiber.Map, 0, len(outcomes))
		for i, out := range outcomes {
			entry := fiber.Map{"fileName": batch[i].Name}
			switch {
			case out.Err != nil:
				entry["status"] = "rejected"
				entry["error"] = fiber.Map{"code": out.Err.Code, "message": out.Err.Message}
			case out.Degraded:
				entry["status"] = "degraded"
				entry["document"] = documentDTO(out.Record, session.Language())
			default:
				entry["status"] = "completed"
				entry["document"] = documentDTO(out.Record, session.Language())
			}
			results = append(results, entry)
		}
		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"results":     results,
			"canContinue": session.CanContinue(),
		})
	}
}

func readUpload(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, errx.Wrap(err, "Could not read uploaded file", errx.TypeValidation)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errx.Wrap(err, "Could not read uploaded file", errx.TypeValidation)
	}
	return data, nil
}

func listDocumentsHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}

		query := doccollect.Query{
			Search:   ctx.Query("search"),
			Category: docclassify.Category(ctx.Query("category")),
			Sort:     doccollect.SortKey(ctx.Query("sort")),
		}
		if query.Category != "" && !query.Category.IsValid() {
			return errx.Validation(fmt.Sprintf("Unknown document category %q", query.Category))
		}

		records := session.View(query)

		page := ctx.QueryInt("page", 1)
		size := ctx.QueryInt("page_size", 20)
		if page < 1 {
			page = 1
		}
		if size < 1 || size > 100 {
			size = 20
		}
		total := len(records)
		start := (page - 1) * size
		if start > total {
			start = total
		}
		end := start + size
		if end > total {
			end = total
		}

		items := make([]fiber.Map, 0, end-start)
		for _, r := range records[start:end] {
			items = append(items, documentDTO(r, session.Language()))
		}
		return ctx.JSON(kernel.NewPaginated(items, page, size, total))
	}
}

func rawDocumentHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}
		record, ok := session.Collection().Get(kernel.NewDocumentID(ctx.Params("id")))
		if !ok {
			return errx.NotFound("Document not found")
		}
		ctx.Set("Content-Type", record.Source.MediaType)
		return ctx.Send(record.Source.Data)
	}
}

func toggleSelectHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}
		selected, selErr := session.ToggleSelect(kernel.NewDocumentID(ctx.Params("id")))
		if selErr != nil {
			return selErr
		}
		return ctx.JSON(fiber.Map{"selected": selected})
	}
}

func deleteDocumentHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}
		if remErr := session.Remove(kernel.NewDocumentID(ctx.Params("id"))); remErr != nil {
			return remErr
		}
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

type bulkDeleteRequest struct {
	Confirm bool `json:"confirm"`
}

func bulkDeleteHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}
		var req bulkDeleteRequest
		if len(ctx.Body()) > 0 {
			if parseErr := ctx.BodyParser(&req); parseErr != nil {
				return errx.Wrap(parseErr, "Invalid bulk delete request", errx.TypeValidation)
			}
		}
		deleted, delErr := session.DeleteSelected(req.Confirm)
		if delErr != nil {
			return delErr
		}
		return ctx.JSON(fiber.Map{"deleted": deleted, "canContinue": session.CanContinue()})
	}
}

type enhanceRequest struct {
	Brightness      *float64 `json:"brightness"`
	Contrast        *float64 `json:"contrast"`
	SharpenStrength *float64 `json:"sharpenStrength"`
}

func enhanceHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}

		params := docenhance.DefaultParams()
		var req enhanceRequest
		if len(ctx.Body()) > 0 {
			if parseErr := ctx.BodyParser(&req); parseErr != nil {
				return errx.Wrap(parseErr, "Invalid enhancement parameters", errx.TypeValidation)
			}
			if req.Brightness != nil {
				params.Brightness = *req.Brightness
			}
			if req.Contrast != nil {
				params.Contrast = *req.Contrast
			}
			if req.SharpenStrength != nil {
				params.SharpenStrength = *req.SharpenStrength
			}
		}

		outcome, enhErr := session.Enhance(ctx.Context(), kernel.NewDocumentID(ctx.Params("id")), params)
		if enhErr != nil {
			return enhErr
		}
		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"document": documentDTO(outcome.Record, session.Language()),
			"degraded": outcome.Degraded,
		})
	}
}

type reprocessRequest struct {
	Language string `json:"language"`
}

func reprocessHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		session, err := getSession(ctx, c)
		if err != nil {
			return err
		}
		var req reprocessRequest
		if len(ctx.Body()) > 0 {
			if parseErr := ctx.BodyParser(&req); parseErr != nil {
				return errx.Wrap(parseErr, "Invalid reprocess request", errx.TypeValidation)
			}
		}
		if repErr := session.RequestReprocess(ctx.Context(), kernel.NewDocumentID(ctx.Params("id")), req.Language); repErr != nil {
			return repErr
		}
		return ctx.SendStatus(fiber.StatusAccepted)
	}
}

// ---------------------------------------------------------------------------
// Quality dry run
// ---------------------------------------------------------------------------

// assessHandler scores a file without creating a record, for pre-capture
// hints.
func assessHandler() fiber.Handler {
	assessor := docquality.NewAssessor()
	return func(ctx *fiber.Ctx) error {
		form, formErr := ctx.MultipartForm()
		if formErr != nil {
			return errx.Wrap(formErr, "Expected a multipart upload", errx.TypeValidation)
		}
		headers := form.File["file"]
		if len(headers) == 0 {
			return errx.Validation("No file to assess")
		}
		data, readErr := readUpload(headers[0])
		if readErr != nil {
			return readErr
		}

		report := assessor.Assess(data)
		return ctx.JSON(fiber.Map{
			"score":           report.Score,
			"usable":          report.IsUsable(),
			"issues":          report.Issues,
			"recommendations": report.Recommendations,
		})
	}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

func documentDTO(r *doccollect.DocumentRecord, language string) fiber.Map {
	dto := fiber.Map{
		"id":            r.ID.String(),
		"name":          r.Source.Name,
		"mediaType":     r.Source.MediaType,
		"size":          r.Source.Size,
		"category":      r.Category.String(),
		"categoryLabel": docclassify.Label(r.Category, language),
		"capturedAt":    r.CapturedAt.Format(time.RFC3339),
		"quality": fiber.Map{
			"score":           r.Quality.Score,
			"issues":          r.Quality.Issues,
			"recommendations": r.Quality.Recommendations,
		},
	}
	if r.Preview != nil {
		dto["previewUrl"] = r.Preview.URI()
	}
	if r.OCR != nil {
		dto["ocr"] = fiber.Map{
			"status":            string(r.OCR.Status),
			"requiresReview":    r.OCR.RequiresReview,
			"extractedFields":   r.OCR.ExtractedFields,
			"confidenceByField": r.OCR.ConfidenceByField,
			"rawText":           r.OCR.RawText,
		}
	}
	return dto
}
