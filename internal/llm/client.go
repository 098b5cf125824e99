// Package llm talks to an OpenAI-compatible vision chat-completions
// endpoint: it builds the multimodal request, performs the HTTP exchange
// and interprets the response into extracted text or a classified failure.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jo-hoe/clipscribe/internal/common"
)

// Client performs chat completion exchanges against a configured endpoint
// with bearer-token auth and a bounded timeout.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	log        *slog.Logger
}

// New creates a client for the given endpoint. The timeout bounds the
// whole exchange; there is no retry.
func New(log *slog.Logger, url, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		token:      token,
		log:        log,
	}
}

// Extract sends the request and returns the extracted text. Failures come
// back as one of the classified error types in this package.
func (c *Client) Extract(ctx context.Context, req Request) (string, error) {
	status, body, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}

	res, err := Interpret(status, body)
	if err != nil {
		return "", err
	}

	if res.Usage != nil {
		c.log.Info("api usage",
			"prompt_tokens", res.Usage.PromptTokens,
			"completion_tokens", res.Usage.CompletionTokens,
			"total_tokens", res.Usage.TotalTokens)
	} else {
		c.log.Warn("api response did not include usage information")
	}
	if res.FinishReason != "" {
		c.log.Debug("completion finished", "finish_reason", res.FinishReason)
	}
	return res.Text, nil
}

// do serializes the request, POSTs it and reads the full response body as
// text before any parsing, even on non-2xx status, so error bodies stay
// available for diagnostics.
func (c *Client) do(ctx context.Context, req Request) (int, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set(common.HeaderContentType, common.ContentTypeJSON)
	httpReq.Header.Set(common.HeaderAuthorization, common.AuthSchemeBearer+" "+c.token)

	c.log.Debug("sending chat completion request",
		"endpoint", c.url, "model", req.Model, "payload", humanize.Bytes(uint64(len(payload))))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", &TransportError{Err: ctx.Err()}
		}
		return 0, "", &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}
	c.log.Debug("api response received", "status", resp.StatusCode, "body_bytes", len(body))
	return resp.StatusCode, string(body), nil
}
