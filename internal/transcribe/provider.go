package transcribe

import (
	"context"
	"fmt"
)

// Provider is the interface for speech-to-text backends.
//
// Transcribe returns the recognized text for a single audio file. An empty
// or all-whitespace result is not an error at this level; the caller
// decides what no recognized speech means. Service-level failures come
// back as *Error.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Name() string  // "groq"
	Model() string // model identifier for logs
}

// Error is a service-level transcription failure carrying the upstream
// status and message.
type Error struct {
	Status  int    // HTTP status from the service, 0 for transport errors
	Message string // upstream error body or transport error text
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transcription service error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("transcription service error: %s", e.Message)
}
