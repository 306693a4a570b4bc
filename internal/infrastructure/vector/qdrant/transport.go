package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

var classify = resilience.GatewayClassifier(resilience.StatusOf)

// call sends one JSON request through the resilience executor. A 404 or
// 409 comes back unwrapped as a *resilience.StatusError for the caller to
// interpret.
func (c *Client) call(ctx context.Context, method, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	err = c.executeOrCall(ctx, "qdrant."+strings.ReplaceAll(operation, " ", "_"), func(callCtx context.Context) error {
		req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			return resilience.ReadStatusError("qdrant", operation, resp)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	})
	if err != nil {
		return wrapGatewayError("qdrant "+operation, err)
	}
	return nil
}

func (c *Client) executeOrCall(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classify)
}

func wrapGatewayError(operation string, err error) error {
	if isNotFound(err) || isConflict(err) {
		return err
	}
	return resilience.WrapGatewayError(operation, err, classify)
}

func isNotFound(err error) bool {
	code, ok := resilience.StatusOf(err)
	return ok && code == http.StatusNotFound
}

func isConflict(err error) bool {
	code, ok := resilience.StatusOf(err)
	return ok && code == http.StatusConflict
}
