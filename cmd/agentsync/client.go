package main

import (
	"fmt"
	"time"

	"fleetdeck/internal/models"

	"github.com/go-resty/resty/v2"
)

// syncClient wraps the dashboard sync ingress
type syncClient struct {
	http *resty.Client
}

func newSyncClient(baseURL, secret string) *syncClient {
	return &syncClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetAuthToken(secret).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second),
	}
}

// post sends one payload to a sync route and fails on non-2xx
func (c *syncClient) post(path string, body any) error {
	resp, err := c.http.R().SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status(), resp.String())
	}
	return nil
}

// pending asks whether the dashboard requested a refresh
func (c *syncClient) pending() (bool, error) {
	var out models.PendingSyncResponse
	resp, err := c.http.R().SetResult(&out).Get("/api/sync/pending")
	if err != nil {
		return false, fmt.Errorf("GET /api/sync/pending: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("GET /api/sync/pending: %s", resp.Status())
	}
	return out.Pending, nil
}

// fulfill marks every pending sync request answered
func (c *syncClient) fulfill() (int64, error) {
	var out models.FulfillResponse
	resp, err := c.http.R().SetResult(&out).Post("/api/sync/fulfill")
	if err != nil {
		return 0, fmt.Errorf("POST /api/sync/fulfill: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("POST /api/sync/fulfill: %s", resp.Status())
	}
	return out.Fulfilled, nil
}
