package naver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/httputil"
	"github.com/wonny/frontier/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
// contracts.MarketDataProvider 구현
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	chartURL     string
	riskFreeCode string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, cfg config.NaverConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		chartURL:     strings.TrimRight(cfg.ChartURL, "/"),
		riskFreeCode: cfg.RiskFreeCode,
	}
}

// fetch performs a GET and returns the body
func (c *Client) fetch(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	fullURL := base + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("naver request failed: %w", err)
	}
	return body, nil
}
