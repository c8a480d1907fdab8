package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the hosted text-generation endpoint used when none is configured.
const DefaultURL = "https://api-inference.huggingface.co/models/Rakuten/RakutenAI-7B-instruct"

// Generation parameters are fixed for every call.
const (
	MaxNewTokens = 500
	Temperature  = 0.7
	TopP         = 0.9
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrTransport          = errors.New("transport error")
)

// StatusError carries the HTTP status and body of a failed call. It unwraps to
// one of the sentinel errors above.
type StatusError struct {
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.url = url
}

type parameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type generation struct {
	GeneratedText *string `json:"generated_text"`
}

// Complete sends the prompt to the generation endpoint and returns the raw
// generated text. The credential is forwarded unmodified as a bearer token.
func (c *Client) Complete(ctx context.Context, prompt, credential string) (string, error) {
	body, err := json.Marshal(request{
		Inputs: prompt,
		Parameters: parameters{
			MaxNewTokens: MaxNewTokens,
			Temperature:  Temperature,
			TopP:         TopP,
			DoSample:     true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: api call: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			kind:       kindForStatus(resp.StatusCode),
		}
	}

	return decodeGeneration(respBody)
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	default:
		return ErrTransport
	}
}

// decodeGeneration accepts either a list of generations or a single one.
func decodeGeneration(body []byte) (string, error) {
	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("%w: empty generation list", ErrMalformedResponse)
		}
		if list[0].GeneratedText == nil {
			return "", nil
		}
		return *list[0].GeneratedText, nil
	}

	var single generation
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if single.GeneratedText == nil || *single.GeneratedText == "" {
		return "", fmt.Errorf("%w: no generated_text field", ErrMalformedResponse)
	}
	return *single.GeneratedText, nil
}
