package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"kishu/model"
)

// ExternalClient は外部照合サービス (GET /search?name=...) のクライアントです。
type ExternalClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewExternalClient(baseURL string) *ExternalClient {
	return &ExternalClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// searchResponse は外部サービスの応答です。該当なしのときは
// id/sis_code/name が null で matchStage=4 が返ります。
type searchResponse struct {
	ID         *int64  `json:"id"`
	SisCode    *string `json:"sis_code"`
	Name       *string `json:"name"`
	MatchStage int     `json:"matchStage"`
}

func (c *ExternalClient) Search(ctx context.Context, name string) (*model.MatchCandidate, error) {
	u := fmt.Sprintf("%s/search?name=%s", c.BaseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build external matcher request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external matcher request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("external matcher returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode external matcher response: %w", err)
	}

	cand := model.MatchCandidate{MatchStage: body.MatchStage}
	if body.ID != nil {
		cand.NameCollectionID = *body.ID
	}
	if body.SisCode != nil {
		cand.SisCode = *body.SisCode
	}
	if body.Name != nil {
		cand.CanonicalName = *body.Name
	}
	return &cand, nil
}
