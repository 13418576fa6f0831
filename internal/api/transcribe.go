package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribed/internal/media"
	"github.com/snarg/scribed/internal/pipeline"
	"github.com/snarg/scribed/internal/storage"
)

// allowedExtensions and allowedMIMETypes gate uploads before the pipeline
// ever sees them. Either match admits the file, because browsers are
// inconsistent about recorded-audio MIME types.
var allowedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".webm": true, ".ogg": true,
}

var allowedMIMETypes = map[string]bool{
	"audio/mpeg": true, "audio/wav": true, "audio/mp4": true,
	"audio/webm": true, "audio/ogg": true, "audio/x-m4a": true,
}

// PipelineRunner runs the upload-to-transcript pipeline for one asset.
type PipelineRunner interface {
	Run(ctx context.Context, asset media.Asset, originalFilename string) (*pipeline.Document, error)
}

// TranscribeHandler accepts audio uploads and returns rendered transcript
// PDFs.
type TranscribeHandler struct {
	pipeline       PipelineRunner
	store          *storage.UploadStore
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewTranscribeHandler creates the upload handler.
func NewTranscribeHandler(p PipelineRunner, store *storage.UploadStore, maxUploadMB int, log zerolog.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		pipeline:       p,
		store:          store,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		log:            log.With().Str("handler", "transcribe").Logger(),
	}
}

// Routes registers the transcribe endpoint.
func (h *TranscribeHandler) Routes(r chi.Router) {
	r.Post("/transcribe", h.Transcribe)
}

// Transcribe handles POST /api/transcribe. Expects a multipart form with
// an "audio" file field. On success the response body is the PDF.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("file too large: maximum upload size is %d MB", h.maxUploadBytes/(1024*1024)))
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "no audio file found: upload a file in the \"audio\" field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mime := header.Header.Get("Content-Type")
	if !allowedExtensions[ext] && !allowedMIMETypes[mime] {
		WriteErrorKind(w, http.StatusBadRequest, string(pipeline.KindUnsupportedFormat),
			"unsupported file format: upload mp3, wav, m4a, webm or ogg audio")
		return
	}

	path, size, err := h.store.Save(file, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Msg("saving upload failed")
		WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	// The upload is a per-request temporary, removed on every exit path.
	defer h.store.Remove(path)

	asset := media.Asset{Path: path, SizeBytes: size}
	doc, err := h.pipeline.Run(r.Context(), asset, header.Filename)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

func (h *TranscribeHandler) writePipelineError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		h.log.Error().Err(err).Msg("pipeline failed")
		WriteError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	switch perr.Kind {
	case pipeline.KindQuotaExceeded:
		w.Header().Set("Retry-After", strconv.Itoa(perr.RetryAfterMinutes*60))
		WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:             perr.Message,
			Kind:              string(perr.Kind),
			RemainingSeconds:  &perr.RemainingSeconds,
			RetryAfterMinutes: &perr.RetryAfterMinutes,
		})
	case pipeline.KindNoSpeechDetected:
		WriteErrorKind(w, http.StatusUnprocessableEntity, string(perr.Kind),
			"no speech detected in the audio file")
	case pipeline.KindTranscriptionError:
		h.log.Warn().Err(perr).Msg("transcription failed")
		WriteErrorKind(w, http.StatusUnprocessableEntity, string(perr.Kind),
			"the audio could not be transcribed: verify the file is valid audio")
	case pipeline.KindDurationUnavailable:
		WriteErrorKind(w, http.StatusUnprocessableEntity, string(perr.Kind),
			"could not determine the duration of the audio file")
	case pipeline.KindUnsupportedFormat:
		WriteErrorKind(w, http.StatusBadRequest, string(perr.Kind), perr.Message)
	default:
		// probe and segmentation failures are service-side
		h.log.Error().Err(perr).Str("kind", string(perr.Kind)).Msg("pipeline failed")
		WriteErrorKind(w, http.StatusInternalServerError, string(perr.Kind),
			"audio processing failed, please try again")
	}
}
