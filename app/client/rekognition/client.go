package rekognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"moovzmatch/app/config"
	"net/http"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const requestTimeout = 10 * time.Second

// Celebrity is one recognized face.
type Celebrity struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type recognizeRequest struct {
	Image []byte `json:"image"`
}

type recognizeResponse struct {
	Celebrities []Celebrity `json:"celebrities"`
}

// Client calls the celebrity recognition endpoint. Failures are returned as
// errors, never as partial results.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	return &Client{
		cfg: do.MustInvoke[*config.Config](di),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// RecognizeActors submits one image and returns the recognized celebrities.
// Empty and oversized images are rejected before any network call.
func (c *Client) RecognizeActors(ctx context.Context, image []byte) ([]Celebrity, error) {
	if len(image) == 0 {
		return nil, oops.Errorf("empty image")
	}
	if len(image) > c.cfg.Recognizer.MaxImageBytes {
		return nil, oops.Errorf("image too large: %d > %d bytes", len(image), c.cfg.Recognizer.MaxImageBytes)
	}

	body, err := json.Marshal(recognizeRequest{Image: image})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Recognizer.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Recognizer.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Recognizer.Token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognition request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, oops.With("status", res.StatusCode).Errorf("recognition failed: %s", string(payload))
	}

	var parsed recognizeResponse
	if err = json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	return parsed.Celebrities, nil
}
