package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OpenAI-compatible chat completion response types. The endpoint may
// attach an error object at any status, so Error is decoded on both the
// success and failure paths.

type Response struct {
	Choices []Choice   `json:"choices"`
	Usage   *Usage     `json:"usage"`
	Error   *ErrorBody `json:"error"`
}

type Choice struct {
	Message      RespMessage `json:"message"`
	FinishReason *string     `json:"finish_reason"`
}

type RespMessage struct {
	Content *string `json:"content"` // the API may return null
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// APIError is an explicit error object returned by the endpoint, at any
// HTTP status. It takes priority over the status code.
type APIError struct {
	Message string
	Kind    string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s (%s)", e.Status, e.Message, e.Kind)
}

// HTTPError is a non-2xx response whose body carried no parseable error
// object. Body holds the raw text verbatim for diagnostics.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

// MalformedResponseError is a 2xx response with an unparseable body. A
// success status with broken JSON is always an error, never ignored.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v (body: %s)", e.Err, e.Body)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrNoChoices is a parseable 2xx response with an empty choices list.
var ErrNoChoices = errors.New("response contained no choices")

// TransportError is a connection or timeout failure: the exchange never
// produced a usable status and body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Result is the interpreted payload of a successful exchange.
type Result struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// Interpret disambiguates the heterogeneous shapes the endpoint returns.
// The parse is attempted regardless of status, and an embedded error
// object always wins over the status code: remote endpoints conflate
// transport-layer and application-layer errors, so status alone is not a
// reliable success signal. A null content field in the first choice is a
// valid terminal state and yields an empty string.
func Interpret(status int, body string) (*Result, error) {
	var resp Response
	parseErr := json.Unmarshal([]byte(body), &resp)

	if status < 200 || status > 299 {
		if parseErr == nil && resp.Error != nil {
			return nil, &APIError{Message: resp.Error.Message, Kind: resp.Error.Type, Status: status}
		}
		return nil, &HTTPError{Status: status, Body: body}
	}
	if parseErr != nil {
		return nil, &MalformedResponseError{Body: body, Err: parseErr}
	}
	if resp.Error != nil {
		return nil, &APIError{Message: resp.Error.Message, Kind: resp.Error.Type, Status: status}
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	res := &Result{Usage: resp.Usage}
	if choice.FinishReason != nil {
		res.FinishReason = *choice.FinishReason
	}
	if choice.Message.Content != nil {
		res.Text = *choice.Message.Content
	}
	return res, nil
}
