// Package translate provides the machine-translation gateway used by the
// sync engine: a Translator contract, an HTTP implementation speaking the
// LibreTranslate wire format, and the retry policy applied around calls.
package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Translator is the gateway contract: translate a single string between
// two language tags. Implementations may be rate-limited and fallible;
// callers wrap invocations with a RetryPolicy.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Error reports a non-success response from the translation backend.
type Error struct {
	// Status is the HTTP status code (0 for transport-level failures
	// wrapped elsewhere).
	Status int
	// Body is the (truncated) response body, for diagnostics.
	Body string
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation backend returned status %d: %s", e.Status, e.Body)
}

// ---------------------------------------------------------------------------
// HTTP gateway (LibreTranslate wire format)
// ---------------------------------------------------------------------------

// HTTPTranslator talks to a LibreTranslate-compatible endpoint:
// POST {base}/translate with {"q","source","target","format"} and a
// {"translatedText"} response.
type HTTPTranslator struct {
	// BaseURL is the endpoint base, e.g. "http://localhost:5000".
	BaseURL string
	// APIKey is sent as api_key when set (public instances require one).
	APIKey string
	// Client is the HTTP client; NewHTTPTranslator sets a timeout-bound one.
	Client *http.Client
}

// NewHTTPTranslator returns a gateway for the given endpoint base URL.
func NewHTTPTranslator(baseURL string, timeout time.Duration) *HTTPTranslator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTranslator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Translate sends one string to the backend. Non-200 responses yield a
// *Error carrying the status code.
func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]string{
		"q":      text,
		"source": sourceLang,
		"target": targetLang,
		"format": "text",
	}
	if t.APIKey != "" {
		payload["api_key"] = t.APIKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Status: resp.StatusCode, Body: truncate(string(respBody), 300)}
	}

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	return out.TranslatedText, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ---------------------------------------------------------------------------
// Retry policy
// ---------------------------------------------------------------------------

// RetryPolicy describes how failed gateway calls are retried: up to
// MaxAttempts calls, waiting BaseDelay before the first retry and doubling
// the wait for each subsequent one. Classify decides whether a failure is
// transient; non-transient failures propagate immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Classify    func(error) bool
}

// DefaultRetryPolicy matches the documented defaults: 3 attempts, 1s base
// delay, IsRetryable classifier.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Classify: IsRetryable}
}

// IsRetryable classifies a gateway failure as transient. Rate limiting
// (429) and server-side errors (5xx) are transient, as are transport
// failures (connection reset, timeout). Context cancellation and client
// errors (4xx other than 429) are not.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	// Anything else at this level is a transport failure.
	return true
}

// Do runs fn under the policy. It returns nil on the first success, the
// error itself when Classify rejects it, or the last error wrapped once
// all attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	classify := p.Classify
	if classify == nil {
		classify = IsRetryable
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = fn(); err == nil {
			return nil
		}
		if !classify(err) {
			return err
		}
	}
	return fmt.Errorf("exhausted %d attempts: %w", attempts, err)
}

// ---------------------------------------------------------------------------
// Empty-result policy
// ---------------------------------------------------------------------------

// EmptyResultPolicy decides what to do when the gateway returns an empty
// or whitespace-only translation.
type EmptyResultPolicy int

const (
	// FallbackToSource replaces a blank result with the source text so
	// blank strings never poison the output or the cache.
	FallbackToSource EmptyResultPolicy = iota
	// KeepEmpty writes the blank result as-is.
	KeepEmpty
)

// Apply resolves a gateway result under the policy.
func (p EmptyResultPolicy) Apply(source, result string) string {
	if p == FallbackToSource && strings.TrimSpace(result) == "" {
		return source
	}
	return result
}
