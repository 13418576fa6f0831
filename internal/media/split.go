package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSegmentation wraps the first failure of a split. By the time it is
// returned every segment file produced for the split has been removed.
var ErrSegmentation = errors.New("segmentation failed")

// segmentWriter produces one stream-copied segment file from src.
type segmentWriter func(ctx context.Context, src string, startSec, durSec int, dst string) error

// Splitter splits audio assets into size-bounded segments by time offset.
// Cuts are duration-based, so actual segment byte sizes can deviate from
// the bound; the stream-copy trades exact size control for speed and
// fidelity.
type Splitter struct {
	probe func(ctx context.Context, path string) (int, error)
	write segmentWriter
	log   zerolog.Logger
}

// NewSplitter creates a splitter backed by ffprobe and ffmpeg.
func NewSplitter(log zerolog.Logger) *Splitter {
	return &Splitter{
		probe: Probe,
		write: writeSegment,
		log:   log,
	}
}

// Split cuts the asset into segments no larger than maxSegmentSizeMB,
// carved by time offset. Assets already under the bound come back as a
// single passthrough segment sharing the original path. The returned
// cleanup removes every derived segment file (never the original) and is
// safe to call on every exit path.
//
// Segment writes run concurrently; if any write fails, all segment files
// produced for this split are removed and a single error wrapping the
// first failure is returned.
func (s *Splitter) Split(ctx context.Context, asset Asset, maxSegmentSizeMB float64) ([]Segment, func(), error) {
	noop := func() {}

	sizeMB := asset.SizeMB()
	if sizeMB <= maxSegmentSizeMB {
		return []Segment{{Index: 0, Path: asset.Path}}, noop, nil
	}

	total, err := s.probe(ctx, asset.Path)
	if err != nil {
		if errors.Is(err, ErrNoDuration) {
			if asset.SizeBytes == 0 {
				return nil, noop, ErrDurationUnavailable
			}
			// Metadata is missing but the size-based estimate still
			// gives us something to cut against.
			total = int(math.Round(sizeMB)) * 60
		} else {
			return nil, noop, err
		}
	}
	if total <= 0 {
		return nil, noop, ErrDurationUnavailable
	}

	numSegments := int(math.Ceil(sizeMB / maxSegmentSizeMB))
	segmentDuration := (total + numSegments - 1) / numSegments

	s.log.Info().
		Str("asset", asset.Path).
		Float64("size_mb", sizeMB).
		Int("segments", numSegments).
		Int("segment_duration_s", segmentDuration).
		Msg("splitting audio")

	ext := filepath.Ext(asset.Path)
	base := strings.TrimSuffix(asset.Path, ext)

	segments := make([]Segment, numSegments)
	for i := range segments {
		segments[i] = Segment{
			Index:          i,
			StartOffsetSec: i * segmentDuration,
			DurationSec:    segmentDuration,
			Path:           fmt.Sprintf("%s_segment%d%s", base, i, ext),
		}
	}

	cleanup := func() {
		for _, seg := range segments {
			if seg.Path != asset.Path {
				os.Remove(seg.Path)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, seg := range segments {
		seg := seg
		g.Go(func() error {
			if err := s.write(gctx, asset.Path, seg.StartOffsetSec, seg.DurationSec, seg.Path); err != nil {
				return fmt.Errorf("segment %d: %w", seg.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("%w: %w", ErrSegmentation, err)
	}

	return segments, cleanup, nil
}

// writeSegment stream-copies a time range of src into dst with ffmpeg.
// The audio codec is copied as-is (no transcode); the last segment simply
// stops at end-of-stream when the range runs past it.
func writeSegment(ctx context.Context, src string, startSec, durSec int, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-ss", strconv.Itoa(startSec),
		"-t", strconv.Itoa(durSec),
		"-acodec", "copy",
		"-vn",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
