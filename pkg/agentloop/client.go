package agentloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/doge-run/doge/internal/config"
	"github.com/doge-run/doge/pkg/doerr"
)

// Client is a thin OpenAI-compatible Chat Completions HTTP client with
// retry/backoff (spec.md §4.H steps 5-7, §6).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cfg        config.LLMConfig
}

// NewClient builds a Client from the endpoint, key, and LLM transport config.
func NewClient(baseURL, apiKey string, cfg config.LLMConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		baseURL: NormalizeEndpoint(baseURL),
		apiKey:  apiKey,
		cfg:     cfg,
	}
}

// NormalizeEndpoint implements spec.md §6's endpoint normalisation rule:
// strip trailing slashes; if the base URL ends in `/v1[/]*`, truncate
// and re-append `/v1/chat/completions`; otherwise append it.
func NormalizeEndpoint(base string) string {
	trimmed := strings.TrimRight(base, "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed + "/chat/completions"
	}
	return trimmed + "/v1/chat/completions"
}

// Complete issues one chat request, retrying per spec.md §4.H step 6:
// Network/Timeout/Server/RateLimited retry with exponential-with-jitter
// backoff honoring Retry-After; ClientBadRequest does not retry;
// Deserialize retries once; Cancelled returns immediately.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(c.cfg.RetryBaseMs) * time.Millisecond
	b.RandomizationFactor = jitterFraction(c.cfg.RetryJitterMs, c.cfg.RetryBaseMs)
	b.Multiplier = 2
	b.MaxElapsedTime = 0 // bounded by MaxRetries via WithMaxRetries instead

	maxRetries := c.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

	deserializeRetried := false
	var result *CompletionResponse

	operation := func() error {
		select {
		case <-ctx.Done():
			return backoff.Permanent(doerr.Wrap(doerr.Cancelled, "request cancelled", ctx.Err()))
		default:
		}

		resp, retryAfter, err := c.send(ctx, req)
		if err != nil {
			if doerr.Is(err, doerr.Deserialize) && !deserializeRetried {
				deserializeRetried = true
				return err
			}
			if !doerr.Retryable(err) {
				return backoff.Permanent(err)
			}
			if retryAfter > 0 && c.cfg.RespectRetryAfter {
				b.InitialInterval = retryAfter
				// Retry resets b only once, before the first attempt; reset
				// again so the next interval starts from retryAfter.
				b.Reset()
			}
			return err
		}
		result = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, unwrapPermanent(err)
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, req CompletionRequest) (*CompletionResponse, time.Duration, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, doerr.Wrap(doerr.Deserialize, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, doerr.Wrap(doerr.Network, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	select {
	case <-ctx.Done():
		return nil, 0, doerr.Wrap(doerr.Cancelled, "cancelled before send", ctx.Err())
	default:
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, doerr.Wrap(doerr.Cancelled, "cancelled during send", ctx.Err())
		}
		if isTimeoutErr(err) {
			return nil, 0, doerr.Wrap(doerr.Timeout, "request timed out", err)
		}
		return nil, 0, doerr.Wrap(doerr.Network, "request failed", err)
	}
	defer resp.Body.Close()

	select {
	case <-ctx.Done():
		return nil, 0, doerr.Wrap(doerr.Cancelled, "cancelled during body read", ctx.Err())
	default:
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, doerr.Wrap(doerr.Network, "failed to read response body", err)
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	if resp.StatusCode >= 500 {
		return nil, retryAfter, doerr.New(doerr.Server, fmt.Sprintf("server error %d: %s", resp.StatusCode, excerpt(respBody)))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retryAfter, doerr.New(doerr.RateLimited, fmt.Sprintf("rate limited: %s", excerpt(respBody)))
	}
	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		if isContextLengthError(eb.Error.Code, eb.Error.Message) {
			return nil, 0, doerr.New(doerr.ContextLengthExceeded, eb.Error.Message)
		}
		msg := eb.Error.Message
		if msg == "" {
			msg = excerpt(respBody)
		}
		return nil, 0, doerr.New(doerr.ClientBadRequest, fmt.Sprintf("client error %d: %s", resp.StatusCode, msg))
	}

	var completion CompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, 0, doerr.Wrap(doerr.Deserialize, "malformed completion response", err)
	}
	return &completion, 0, nil
}

func isContextLengthError(code, message string) bool {
	lower := strings.ToLower(code + " " + message)
	return strings.Contains(lower, "context_length") || strings.Contains(lower, "maximum context length") || strings.Contains(lower, "context window")
}

func excerpt(body []byte) string {
	const max = 240
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}

func jitterFraction(jitterMs, baseMs int) float64 {
	if baseMs <= 0 {
		return 0.5
	}
	f := float64(jitterMs) / float64(baseMs)
	if f <= 0 {
		return 0.1
	}
	if f > 1 {
		return 1
	}
	return f
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	for e := err; e != nil; {
		if te, ok := e.(timeouter); ok {
			t = te
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return t != nil && t.Timeout()
}

func unwrapPermanent(err error) error {
	var perr *backoff.PermanentError
	if e, ok := err.(*backoff.PermanentError); ok {
		perr = e
		return perr.Err
	}
	return err
}
