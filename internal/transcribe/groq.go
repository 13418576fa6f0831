package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultGroqURL is the OpenAI-compatible transcriptions endpoint.
const DefaultGroqURL = "https://api.groq.com/openai/v1/audio/transcriptions"

// GroqClient calls the Groq audio transcriptions API.
type GroqClient struct {
	url      string
	apiKey   string
	model    string
	language string
	client   *http.Client

	maxElapsed time.Duration // retry budget for transient failures
}

// GroqOptions configures a GroqClient.
type GroqOptions struct {
	URL      string // empty = DefaultGroqURL
	APIKey   string
	Model    string // e.g. "whisper-large-v3-turbo"
	Language string // ISO 639-1, e.g. "tr"
	Timeout  time.Duration
}

// NewGroqClient creates a Groq speech-to-text client.
func NewGroqClient(opts GroqOptions) *GroqClient {
	url := opts.URL
	if url == "" {
		url = DefaultGroqURL
	}
	return &GroqClient{
		url:        url,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		language:   opts.Language,
		client:     &http.Client{Timeout: opts.Timeout},
		maxElapsed: 30 * time.Second,
	}
}

func (c *GroqClient) Name() string  { return "groq" }
func (c *GroqClient) Model() string { return c.model }

type groqResponse struct {
	Text string `json:"text"`
}

// Transcribe sends an audio file to the Groq API and returns the
// recognized text. Uses multipart/form-data with temperature 0 and a
// fixed target language. Transport errors and 5xx responses are retried
// with exponential backoff; 4xx responses fail immediately.
func (c *GroqClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	body, contentType, err := c.buildForm(audioPath)
	if err != nil {
		return "", err
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.maxElapsed),
	), ctx)

	var text string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return &Error{Message: err.Error()}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Message: "read response: " + err.Error()}
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return &Error{Status: resp.StatusCode, Message: string(respBody)}
		default:
			return backoff.Permanent(&Error{Status: resp.StatusCode, Message: string(respBody)})
		}

		var result groqResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return backoff.Permanent(&Error{Status: resp.StatusCode, Message: "decode response: " + err.Error()})
		}
		text = result.Text
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return text, nil
}

// buildForm assembles the multipart request body. The body is buffered so
// retries can replay it.
func (c *GroqClient) buildForm(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model", c.model)
	if c.language != "" {
		w.WriteField("language", c.language)
	}
	w.WriteField("response_format", "json")
	w.WriteField("temperature", "0.00")

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
