package media

// Asset is an uploaded audio file on local disk. The backing file is owned
// by the request that created it and is removed when the request ends.
type Asset struct {
	Path      string
	SizeBytes int64
}

// SizeMB returns the asset size in megabytes.
func (a Asset) SizeMB() float64 {
	return float64(a.SizeBytes) / (1024 * 1024)
}

// Segment is a time-bounded sub-range of an Asset, produced by stream-copy
// without re-encoding. A passthrough segment shares the parent's path and
// must not be deleted with the derived ones.
type Segment struct {
	Index          int
	StartOffsetSec int
	DurationSec    int
	Path           string
}
