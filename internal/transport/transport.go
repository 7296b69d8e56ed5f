// Package transport is the engine's sole outward boundary: an abstract
// request capability plus the path, query, and pagination-envelope
// conventions spoken across it.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Requester issues one request and returns the raw JSON body, or an error
// for network failure and non-2xx responses.
type Requester interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// StatusError carries the status code and message of a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
}

// Client implements Requester over net/http against a base URL.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the given base URL.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// Request performs the HTTP call. body, when non-nil, is JSON-encoded.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(payload)}
	}
	return payload, nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// ExpandPath substitutes {param} placeholders with percent-encoded values.
// Placeholders without a supplied value are left intact.
func ExpandPath(template string, params map[string]string) string {
	out := template
	for name, value := range params {
		out = strings.ReplaceAll(out, "{"+name+"}", url.PathEscape(value))
	}
	return out
}

// EncodeQuery builds a percent-encoded query string in key order of the
// names slice, omitting parameters whose value is empty. The result has no
// leading "?".
func EncodeQuery(names []string, values map[string]string) string {
	var parts []string
	for _, name := range names {
		v := values[name]
		if v == "" {
			continue
		}
		parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

// Page is the normalized pagination envelope.
type Page struct {
	Offset    int               `json:"offset"`
	Total     int               `json:"total"`
	Objects   []json.RawMessage `json:"objects"`
	Paginated bool              `json:"paginated"`
}

// NormalizePage decodes a list response body into a Page. The canonical
// shape is {offset, total, objects}; the alternate {content} shape and a
// bare array are normalized at this boundary. A body without a total is a
// non-paginated result: everything it holds is the whole result set.
func NormalizePage(raw json.RawMessage) (Page, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var objects []json.RawMessage
		if err := json.Unmarshal(trimmed, &objects); err != nil {
			return Page{}, fmt.Errorf("decoding list body: %w", err)
		}
		return Page{Objects: objects, Total: len(objects)}, nil
	}

	var envelope struct {
		Offset  *int              `json:"offset"`
		Total   *int              `json:"total"`
		Objects []json.RawMessage `json:"objects"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Page{}, fmt.Errorf("decoding list body: %w", err)
	}

	page := Page{Objects: envelope.Objects}
	if page.Objects == nil {
		page.Objects = envelope.Content
	}
	if envelope.Offset != nil {
		page.Offset = *envelope.Offset
	}
	if envelope.Total != nil {
		page.Total = *envelope.Total
		page.Paginated = true
	} else {
		page.Total = len(page.Objects)
	}
	return page, nil
}
