package liquidator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apitypes "github.com/openalpha/creditpool/api/types"
)

// HTTPSource reads markets and positions from the gateway REST API
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a new HTTP position source
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ListMarkets returns the markets from GET /v1/markets
func (s *HTTPSource) ListMarkets(ctx context.Context) ([]*apitypes.Market, error) {
	var markets []*apitypes.Market
	if err := s.getJSON(ctx, s.baseURL+"/v1/markets", &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// ListPositions returns the positions from GET /v1/markets/{id}/positions
func (s *HTTPSource) ListPositions(ctx context.Context, marketID string) ([]*apitypes.Position, error) {
	var positions []*apitypes.Position
	url := fmt.Sprintf("%s/v1/markets/%s/positions", s.baseURL, marketID)
	if err := s.getJSON(ctx, url, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
