package ocrclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/kernel"
)

func noBackoff(int) time.Duration { return 0 }

func uploadRequest() UploadRequest {
	return UploadRequest{
		SessionID: kernel.NewSessionID("sess-1"),
		FileName:  "license.jpg",
		MediaType: "image/jpeg",
		Data:      []byte("jpeg-bytes"),
		Category:  docclassify.CategoryDriversLicense,
	}
}

func TestUploadParsesMultipartAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("sessionId"); got != "sess-1" {
			t.Errorf("sessionId = %q", got)
		}
		if got := r.FormValue("documentCategory"); got != "drivers_license" {
			t.Errorf("documentCategory = %q", got)
		}
		if got := r.FormValue("documentName"); got != "license.jpg" {
			t.Errorf("documentName = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" {
			t.Errorf("file payload = %q", data)
		}
		if header.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("file content type = %q", header.Header.Get("Content-Type"))
		}

		json.NewEncoder(w).Encode(UploadResponse{
			DocumentID: "doc-42",
			OCR: &OCRResult{
				ExtractedData:    map[string]string{"Full Name": "Jane Roe"},
				FieldConfidences: map[string]float64{"Full Name": 91.5},
				RawText:          "JANE ROE",
				ProcessingStatus: "completed",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBackoff(noBackoff))
	resp, err := c.Upload(context.Background(), uploadRequest())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.DocumentID != "doc-42" {
		t.Fatalf("DocumentID = %q", resp.DocumentID)
	}
	if resp.OCR == nil || resp.OCR.ExtractedData["Full Name"] != "Jane Roe" {
		t.Fatalf("OCR result not parsed: %+v", resp.OCR)
	}
}

func TestUploadRemoteRejection(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"message":"unsupported media type"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBackoff(noBackoff))
	_, err := c.Upload(context.Background(), uploadRequest())
	if err == nil {
		t.Fatal("expected remote error")
	}
	if err.Code != ErrRemote.Code {
		t.Fatalf("error code = %q, want %q", err.Code, ErrRemote.Code)
	}
	if err.Message != "unsupported media type" {
		t.Fatalf("error message = %q", err.Message)
	}
	// A 4xx is not retried.
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hit %d times, want 1", n)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(UploadResponse{DocumentID: "doc-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBackoff(noBackoff))
	resp, err := c.Upload(context.Background(), uploadRequest())
	if err != nil {
		t.Fatalf("Upload after retries: %v", err)
	}
	if resp.DocumentID != "doc-1" {
		t.Fatalf("DocumentID = %q", resp.DocumentID)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("server hit %d times, want 3", n)
	}
}

func TestUploadRetryBudgetExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBackoff(noBackoff), WithMaxRetries(2))
	_, err := c.Upload(context.Background(), uploadRequest())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("server hit %d times, want 3", n)
	}
}

func TestReprocess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/doc-42/ocr" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ReprocessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Language != "es" {
			t.Errorf("language = %q", req.Language)
		}
		json.NewEncoder(w).Encode(ReprocessResponse{
			OCR: &OCRResult{ProcessingStatus: "completed", RawText: "ACTA"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBackoff(noBackoff))
	resp, err := c.Reprocess(context.Background(), ReprocessRequest{DocumentID: "doc-42", Language: "es"})
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if resp.OCR == nil || resp.OCR.RawText != "ACTA" {
		t.Fatalf("OCR = %+v", resp.OCR)
	}
}

func TestAuthTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(UploadResponse{DocumentID: "doc-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAuthToken("tok-1"), WithBackoff(noBackoff))
	if _, err := c.Upload(context.Background(), uploadRequest()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}
