// Package advisor integrates the external configuration-suggestion
// service. The advisor is advisory only: callers degrade to an empty
// suggestion list when it is unreachable.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/types"
)

// ErrUnavailable wraps every transport or decode failure so callers can
// classify advisor outages without inspecting causes.
var ErrUnavailable = errors.New("advisor unavailable")

const requestTimeout = 30 * time.Second

// Client produces configuration suggestions for one workload config file.
type Client interface {
	Suggest(ctx context.Context, id int, path, content string) ([]types.Suggestion, error)
}

// New returns an HTTP client for conf.AdvisorURL, or a disabled client
// when no URL is configured.
func New(conf *config.Config) Client {
	if conf.AdvisorURL == "" {
		return disabled{}
	}
	return &httpClient{
		baseURL: conf.AdvisorURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Degrade collapses an advisor failure into an empty suggestion list with a
// warning log, keeping the surrounding request path alive.
func Degrade(ctx context.Context, suggestions []types.Suggestion, err error) []types.Suggestion {
	if err != nil {
		log.WithFunc("advisor.Degrade").Warnf(ctx, "advisor failed, returning no suggestions: %v", err)
		return []types.Suggestion{}
	}
	if suggestions == nil {
		return []types.Suggestion{}
	}
	return suggestions
}

type disabled struct{}

func (disabled) Suggest(context.Context, int, string, string) ([]types.Suggestion, error) {
	return []types.Suggestion{}, nil
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

type suggestRequest struct {
	WorkloadID int    `json:"workload_id"`
	Path       string `json:"path"`
	Content    string `json:"content"`
}

type suggestResponse struct {
	Suggestions []types.Suggestion `json:"suggestions"`
}

func (c *httpClient) Suggest(ctx context.Context, id int, path, content string) ([]types.Suggestion, error) {
	body, err := json.Marshal(suggestRequest{WorkloadID: id, Path: path, Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode advisor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/suggestions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.Suggestions, nil
}
