// Package client talks to the search service's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client issues partial-update calls to the search service. Credentials
// travel in headers, the object id in the path.
type Client struct {
	baseURL string
	appID   string
	apiKey  string
	http    *http.Client
}

func New(baseURL, appID, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) PartialUpdate(ctx context.Context, index, objectID, field string, entries []any) error {
	body, err := json.Marshal(map[string]any{
		"objectID": objectID,
		field:      entries,
	})
	if err != nil {
		return fmt.Errorf("encode partial update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/1/indexes/%s/%s/partial",
		c.baseURL, url.PathEscape(index), url.PathEscape(objectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build partial update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Application-Id", c.appID)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("partial update %s/%s: %w", index, objectID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("partial update %s/%s: status %d: %s", index, objectID, resp.StatusCode, msg)
	}
	return nil
}
