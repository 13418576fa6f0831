package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribed/internal/media"
	"github.com/snarg/scribed/internal/pipeline"
	"github.com/snarg/scribed/internal/storage"
)

type fakeRunner struct {
	doc      *pipeline.Document
	err      error
	gotAsset media.Asset
	gotName  string
	called   bool
}

func (f *fakeRunner) Run(ctx context.Context, asset media.Asset, originalFilename string) (*pipeline.Document, error) {
	f.called = true
	f.gotAsset = asset
	f.gotName = originalFilename
	return f.doc, f.err
}

func newTestHandler(t *testing.T, runner *fakeRunner) (*TranscribeHandler, *storage.UploadStore) {
	t.Helper()
	store, err := storage.NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewTranscribeHandler(runner, store, 200, zerolog.Nop()), store
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, h *TranscribeHandler, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { h.Routes(r) })
	r.ServeHTTP(rec, req)
	return rec
}

func TestTranscribe_Success(t *testing.T) {
	runner := &fakeRunner{doc: &pipeline.Document{
		Data:     []byte("%PDF-fake"),
		Filename: "transkript-123.pdf",
	}}
	h, store := newTestHandler(t, runner)

	rec := doUpload(t, h, "kayit.mp3", []byte("audio bytes"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="transkript-123.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF-fake" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if runner.gotName != "kayit.mp3" {
		t.Errorf("original filename = %q", runner.gotName)
	}
	if runner.gotAsset.SizeBytes != int64(len("audio bytes")) {
		t.Errorf("asset size = %d", runner.gotAsset.SizeBytes)
	}

	// The upload is a per-request temporary and must be gone
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d files left in upload dir after request", len(entries))
	}
}

func TestTranscribe_UnsupportedFormat(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newTestHandler(t, runner)

	rec := doUpload(t, h, "notes.txt", []byte("plain text"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != string(pipeline.KindUnsupportedFormat) {
		t.Errorf("kind = %q, want unsupported_format", resp.Kind)
	}
	if runner.called {
		t.Error("pipeline ran for an unsupported format")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	h, _ := newTestHandler(t, &fakeRunner{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("something", "else")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { h.Routes(r) })
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribe_QuotaExceededMapsTo429(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.Error{
		Kind:              pipeline.KindQuotaExceeded,
		Message:           "hourly quota exceeded",
		RemainingSeconds:  500,
		RetryAfterMinutes: 5,
	}}
	h, _ := newTestHandler(t, runner)

	rec := doUpload(t, h, "kayit.mp3", []byte("audio"))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "300" {
		t.Errorf("Retry-After = %q, want 300", got)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RemainingSeconds == nil || *resp.RemainingSeconds != 500 {
		t.Errorf("remainingSeconds = %v, want 500", resp.RemainingSeconds)
	}
	if resp.RetryAfterMinutes == nil || *resp.RetryAfterMinutes != 5 {
		t.Errorf("retryAfterMinutes = %v, want 5", resp.RetryAfterMinutes)
	}
}

func TestTranscribe_ErrorKindStatusMapping(t *testing.T) {
	cases := []struct {
		kind pipeline.Kind
		want int
	}{
		{pipeline.KindNoSpeechDetected, http.StatusUnprocessableEntity},
		{pipeline.KindTranscriptionError, http.StatusUnprocessableEntity},
		{pipeline.KindDurationUnavailable, http.StatusUnprocessableEntity},
		{pipeline.KindSegmentationFailed, http.StatusInternalServerError},
		{pipeline.KindProbeError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			runner := &fakeRunner{err: &pipeline.Error{Kind: tc.kind, Message: "boom"}}
			h, _ := newTestHandler(t, runner)

			rec := doUpload(t, h, "kayit.mp3", []byte("audio"))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
