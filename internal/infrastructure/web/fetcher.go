// Package web downloads pages for URL ingestion.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

const defaultMaxBytes = 10 << 20

var classify = resilience.GatewayClassifier(resilience.StatusOf)

type Fetcher struct {
	httpClient *http.Client
	executor   *resilience.Executor
	maxBytes   int64
	userAgent  string
}

func NewFetcher(executor *resilience.Executor, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		maxBytes:   defaultMaxBytes,
		userAgent:  "notebook-llm/1.0",
	}
}

// Fetch returns the body and content type. Bodies over the size cap are
// rejected rather than truncated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "fetch url", fmt.Errorf("unsupported url %q", rawURL))
	}

	type page struct {
		body        []byte
		contentType string
	}
	out, err := resilience.Do(ctx, f.executor, "web.fetch", func(callCtx context.Context) (page, error) {
		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u.String(), nil)
		if err != nil {
			return page{}, fmt.Errorf("create fetch request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return page{}, fmt.Errorf("fetch request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			return page{}, resilience.ReadStatusError("web", "fetch "+u.Host, resp)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return page{}, fmt.Errorf("read fetch body: %w", err)
		}
		if int64(len(body)) > f.maxBytes {
			return page{}, domain.WrapError(domain.ErrInvalidInput, "fetch url", fmt.Errorf("body exceeds %d bytes", f.maxBytes))
		}
		return page{body: body, contentType: resp.Header.Get("Content-Type")}, nil
	}, classify)
	if err != nil {
		return nil, "", resilience.WrapGatewayError("fetch url", err, classify)
	}
	return out.body, out.contentType, nil
}
