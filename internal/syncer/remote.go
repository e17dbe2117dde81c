package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pawtrack/walks-backend-go/internal/models"
)

// HTTPClient implements RemoteSync against the remote authority's three
// upsert endpoints. Requests carry a short-lived device JWT; the remote
// keys every upsert on the local entity id, so replays are harmless.
type HTTPClient struct {
	baseURL  string
	secret   []byte
	deviceID string
	client   *http.Client
}

// NewHTTPClient creates a remote sync client.
func NewHTTPClient(baseURL, secret, deviceID string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		secret:   []byte(secret),
		deviceID: deviceID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// UpsertWalk uploads a single walk.
func (c *HTTPClient) UpsertWalk(ctx context.Context, walk models.Walk) error {
	return c.post(ctx, "/api/v1/sync/walks", walk)
}

// UpsertTrackPoints uploads a batch of track points.
func (c *HTTPClient) UpsertTrackPoints(ctx context.Context, points []models.TrackPoint) error {
	return c.post(ctx, "/api/v1/sync/track-points", points)
}

// UpsertStopEvents uploads a batch of stop events.
func (c *HTTPClient) UpsertStopEvents(ctx context.Context, events []models.StopEvent) error {
	return c.post(ctx, "/api/v1/sync/stop-events", events)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.deviceToken()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote rejected %s: status %d: %s", path, resp.StatusCode, msg)
	}
	return nil
}

// deviceToken signs a short-lived JWT identifying this device.
func (c *HTTPClient) deviceToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   c.deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign device token: %w", err)
	}
	return signed, nil
}
