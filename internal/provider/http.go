package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 512

// getJSON performs a GET and decodes a JSON body into out. Non-2xx statuses
// and transport failures come back as classified *FetchErrors.
func getJSON(ctx context.Context, client *http.Client, name, symbol, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return newFetchError(name, symbol, ErrUnavailable, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return newFetchError(name, symbol, ErrUnavailable, fmt.Errorf("http request: %w", classifyTransport(err)))
	}
	defer func() { _ = resp.Body.Close() }()

	if kind := classifyStatus(resp.StatusCode); kind != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newFetchError(name, symbol, kind, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newFetchError(name, symbol, ErrUnavailable, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
