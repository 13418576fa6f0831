package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// ErrNoDuration means ffprobe ran but the container metadata carries no
// duration. Callers degrade to the size-based estimate.
var ErrNoDuration = errors.New("no duration in container metadata")

// ErrProbe wraps failures of the inspection step itself, as opposed to
// metadata that is merely missing.
var ErrProbe = errors.New("media probe failed")

// ErrDurationUnavailable means the duration cannot be determined at all:
// the probe failed and the asset has no bytes to estimate from.
var ErrDurationUnavailable = errors.New("audio duration unavailable")

// toolsAvailable caches whether ffmpeg and ffprobe are in PATH (checked
// once at startup).
var toolsAvailable *bool

// CheckFFmpeg checks if ffmpeg and ffprobe are available in PATH. Call
// once at startup.
func CheckFFmpeg() bool {
	if toolsAvailable != nil {
		return *toolsAvailable
	}
	_, errProbe := exec.LookPath("ffprobe")
	_, errMpeg := exec.LookPath("ffmpeg")
	avail := errProbe == nil && errMpeg == nil
	toolsAvailable = &avail
	return avail
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the asset's playable duration in seconds, rounded to the
// nearest second, by inspecting container metadata with ffprobe.
// Returns ErrNoDuration when the metadata has no duration; any other
// error means the inspection itself failed.
func Probe(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe %s: %w", ErrProbe, path, err)
	}

	var pf probeFormat
	if err := json.Unmarshal(out, &pf); err != nil {
		return 0, fmt.Errorf("%w: decode ffprobe output: %w", ErrProbe, err)
	}
	if pf.Format.Duration == "" {
		return 0, ErrNoDuration
	}
	secs, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q: %w", ErrProbe, pf.Format.Duration, err)
	}
	return int(math.Round(secs)), nil
}

// EstimateDuration returns the asset's duration in seconds. The probe is
// the primary path; when it fails for any reason the duration is
// approximated as one minute per megabyte, rounded. The approximation is
// crude but keeps the request alive when metadata is missing or the probe
// tool misbehaves. The only failure is the degenerate case of a failed
// probe on a zero-byte asset.
func EstimateDuration(ctx context.Context, asset Asset) (int, error) {
	if secs, err := Probe(ctx, asset.Path); err == nil {
		return secs, nil
	}
	if asset.SizeBytes == 0 {
		return 0, ErrDurationUnavailable
	}
	minutes := int(math.Round(asset.SizeMB()))
	return minutes * 60, nil
}
