package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whatsapp-relay/core"
)

const contentTypeJSON = "application/json"

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 1 << 20

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JSONClient posts JSON bodies and hands back the raw response. Transport
// failures come back as go-errors envelopes in the external category.
type JSONClient struct {
	Client               HTTPDoer
	MaxResponseBodyBytes int64
}

func NewJSONClient(client HTTPDoer) *JSONClient {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &JSONClient{Client: client, MaxResponseBodyBytes: defaultResponseBodyLimit}
}

// NewJSONRequest encodes payload and sets the JSON content headers. Entries in
// headers override the defaults.
func NewJSONRequest(rawURL string, payload any, headers map[string]string, timeout time.Duration) (core.TransportRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportRequest{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode json body",
			http.StatusBadRequest,
			map[string]any{"url": rawURL},
		)
	}
	merged := map[string]string{
		"Content-Type": contentTypeJSON,
		"Accept":       contentTypeJSON,
	}
	for key, value := range headers {
		merged[key] = value
	}
	return core.TransportRequest{URL: rawURL, Headers: merged, Body: body, Timeout: timeout}, nil
}

func (c *JSONClient) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if c == nil || c.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: json client requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || target.Host == "" {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: request url is invalid",
			http.StatusBadRequest,
			map[string]any{"url": req.URL},
		)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"url": target.String()},
		)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	startedAt := time.Now()
	httpRes, err := c.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"url": target.String(), "timeout": IsTimeout(err)},
		)
	}
	defer httpRes.Body.Close()

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "timeout": IsTimeout(err)},
		)
	}
	if int64(len(body)) > limit {
		return core.TransportResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": limit},
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Body:       body,
		Duration:   time.Since(startedAt),
	}, nil
}

// IsTimeout reports whether err was caused by a deadline or a client timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

var _ core.TransportAdapter = (*JSONClient)(nil)
