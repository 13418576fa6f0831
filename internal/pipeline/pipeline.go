package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribed/internal/media"
	"github.com/snarg/scribed/internal/metrics"
	"github.com/snarg/scribed/internal/quota"
	"github.com/snarg/scribed/internal/transcribe"
)

// DefaultSegmentThresholdMB is the size above which assets are split
// before transcription. 23 MB leaves a safety margin under the service's
// per-request payload ceiling.
const DefaultSegmentThresholdMB = 23

// Document is a rendered transcript ready for delivery.
type Document struct {
	Data        []byte
	Filename    string
	GeneratedAt time.Time
}

// Renderer turns transcript text into a formatted document.
type Renderer interface {
	Render(text, sourceFilename string, estimatedMinutes int) ([]byte, error)
}

// Splitter cuts oversized assets into size-bounded segments. The cleanup
// func removes every derived segment file and is safe on every exit path.
type Splitter interface {
	Split(ctx context.Context, asset media.Asset, maxSegmentSizeMB float64) ([]media.Segment, func(), error)
}

// Options configures a Pipeline.
type Options struct {
	Limiter            *quota.Limiter
	Provider           transcribe.Provider
	Splitter           Splitter
	Renderer           Renderer
	SegmentThresholdMB float64 // 0 = DefaultSegmentThresholdMB
	Log                zerolog.Logger
}

// Pipeline runs the upload-to-transcript flow for one asset at a time.
// Pipelines are safe for concurrent runs; the limiter is the only shared
// state.
type Pipeline struct {
	limiter     *quota.Limiter
	provider    transcribe.Provider
	splitter    Splitter
	renderer    Renderer
	thresholdMB float64
	log         zerolog.Logger

	estimate func(ctx context.Context, asset media.Asset) (int, error)
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	threshold := opts.SegmentThresholdMB
	if threshold <= 0 {
		threshold = DefaultSegmentThresholdMB
	}
	return &Pipeline{
		limiter:     opts.Limiter,
		provider:    opts.Provider,
		splitter:    opts.Splitter,
		renderer:    opts.Renderer,
		thresholdMB: threshold,
		log:         opts.Log,
		estimate:    media.EstimateDuration,
	}
}

// Run executes the full pipeline for one uploaded asset: estimate
// duration, check the quota, split when oversized, transcribe segments in
// sequence order, commit usage, render the document.
//
// Quota is committed only on full success, with the original estimate
// checked up front. Partial transcripts are never returned. Every segment
// file created for the run is removed on every exit path; the original
// asset's file is owned and removed by the caller.
func (p *Pipeline) Run(ctx context.Context, asset media.Asset, originalFilename string) (*Document, error) {
	log := p.log.With().Str("file", originalFilename).Logger()
	start := time.Now()

	// 1. Duration
	estimated, err := p.estimate(ctx, asset)
	if err != nil {
		return p.fail(newError(KindDurationUnavailable, "could not determine audio duration", err))
	}
	log.Debug().Int("estimated_s", estimated).Float64("size_mb", asset.SizeMB()).Msg("duration estimated")

	// 2. Quota check (no reservation; see quota.Limiter)
	if !p.limiter.CanAccept(estimated) {
		remaining := p.limiter.Remaining()
		retryAfter := (estimated - remaining + 59) / 60
		metrics.QuotaRejectedTotal.Inc()
		return p.fail(&Error{
			Kind:              KindQuotaExceeded,
			Message:           fmt.Sprintf("hourly quota exceeded: %d seconds remaining, need %d", remaining, estimated),
			RemainingSeconds:  remaining,
			RetryAfterMinutes: retryAfter,
		})
	}

	// 3. Segmentation
	segments := []media.Segment{{Index: 0, Path: asset.Path}}
	cleanup := func() {}
	if asset.SizeMB() > p.thresholdMB {
		segments, cleanup, err = p.splitter.Split(ctx, asset, p.thresholdMB)
		if err != nil {
			return p.fail(p.classifySplitError(err))
		}
		metrics.SegmentsCreatedTotal.Add(float64(len(segments)))
	}
	defer cleanup()

	// 4. Sequential transcription, in sequence index order. One failure
	// aborts the run; nothing partial is surfaced.
	fragments := make([]string, 0, len(segments))
	for _, seg := range segments {
		log.Debug().Int("segment", seg.Index).Int("of", len(segments)).Msg("transcribing segment")
		text, err := p.provider.Transcribe(ctx, seg.Path)
		if err != nil {
			return p.fail(newError(KindTranscriptionError,
				fmt.Sprintf("transcription failed on segment %d", seg.Index), err))
		}
		fragments = append(fragments, text)
	}
	transcript := strings.TrimSpace(strings.Join(fragments, " "))

	// 5. No usable output means no quota commit: the user is not charged
	// for a failed recognition.
	if transcript == "" {
		return p.fail(newError(KindNoSpeechDetected, "no speech detected in audio", nil))
	}

	// 6. Commit the original estimate, consistent with what was checked.
	p.limiter.Record(estimated)
	metrics.AudioSecondsTotal.Add(float64(estimated))

	// 7. Render
	now := time.Now()
	data, err := p.renderer.Render(transcript, originalFilename, estimated/60)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	log.Info().
		Int("segments", len(segments)).
		Int("estimated_s", estimated).
		Int("chars", len(transcript)).
		Dur("took", time.Since(start)).
		Msg("pipeline complete")

	return &Document{
		Data:        data,
		Filename:    fmt.Sprintf("transkript-%d.pdf", now.UnixMilli()),
		GeneratedAt: now,
	}, nil
}

func (p *Pipeline) fail(err *Error) (*Document, error) {
	metrics.PipelineRunsTotal.WithLabelValues(string(err.Kind)).Inc()
	return nil, err
}

func (p *Pipeline) classifySplitError(err error) *Error {
	switch {
	case errors.Is(err, media.ErrDurationUnavailable):
		return newError(KindDurationUnavailable, "could not determine audio duration", err)
	case errors.Is(err, media.ErrSegmentation):
		return newError(KindSegmentationFailed, "audio segmentation failed", err)
	case errors.Is(err, media.ErrProbe):
		return newError(KindProbeError, "audio inspection failed", err)
	default:
		return newError(KindSegmentationFailed, "audio segmentation failed", err)
	}
}
