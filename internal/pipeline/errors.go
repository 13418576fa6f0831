package pipeline

// Kind classifies pipeline failures so handlers can branch on a tag
// instead of matching message text.
type Kind string

const (
	KindDurationUnavailable Kind = "duration_unavailable"
	KindProbeError          Kind = "probe_error"
	KindSegmentationFailed  Kind = "segmentation_failed"
	KindQuotaExceeded       Kind = "quota_exceeded"
	KindTranscriptionError  Kind = "transcription_error"
	KindNoSpeechDetected    Kind = "no_speech_detected"
	KindUnsupportedFormat   Kind = "unsupported_format"
)

// Error is a classified pipeline failure. RemainingSeconds and
// RetryAfterMinutes are set only for KindQuotaExceeded; the retry delay
// is advisory, since the quota window slides continuously.
type Error struct {
	Kind              Kind
	Message           string
	Err               error
	RemainingSeconds  int
	RetryAfterMinutes int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
