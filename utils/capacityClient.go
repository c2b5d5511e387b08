package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// CapacityClient talks to the external capacity system that tracks batch
// member counters. Implements services.CapacityStore.
type CapacityClient struct {
	client *resty.Client
}

// NewCapacityClient builds a client for the capacity API at baseURL.
func NewCapacityClient(baseURL, apiKey string) *CapacityClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &CapacityClient{client: client}
}

// GetCounter reads the current counter value. A counter the capacity system
// has never seen reads as zero.
func (c *CapacityClient) GetCounter(ctx context.Context, entityID, counterName string) (int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/entities/%s/counters/%s", entityID, counterName))
	if err != nil {
		return 0, fmt.Errorf("capacity get failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return 0, nil
	}
	if resp.IsError() {
		return 0, fmt.Errorf("capacity get failed: %s %s", resp.Status(), resp.String())
	}

	var body struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return 0, fmt.Errorf("invalid capacity response: %w", err)
	}
	return body.Value, nil
}

// SetCounter pushes a new counter value to the capacity system.
func (c *CapacityClient) SetCounter(ctx context.Context, entityID, counterName string, value int) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]int{"value": value}).
		Put(fmt.Sprintf("/entities/%s/counters/%s", entityID, counterName))
	if err != nil {
		return fmt.Errorf("capacity update failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("capacity update failed: %s %s", resp.Status(), resp.String())
	}
	return nil
}
