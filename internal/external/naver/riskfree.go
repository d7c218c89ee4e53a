package naver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrRateNotFound = errors.New("risk-free rate not found")

// RiskFreeRate scrapes the latest government bond yield (annual, decimal)
// 국고채 3년 일별 시세 첫 행: 3.125 → 0.03125
func (c *Client) RiskFreeRate(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("marketindexCd", c.riskFreeCode)
	params.Set("page", "1")

	body, err := c.fetch(ctx, c.baseURL, "/marketindex/interestDailyQuote.naver", params)
	if err != nil {
		return 0, err
	}

	rate, err := parseRiskFreeHTML(body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.riskFreeCode, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code": c.riskFreeCode,
		"rate": rate,
	}).Debug("Fetched risk-free rate")
	return rate, nil
}

// parseRiskFreeHTML 첫 데이터 행의 첫 번째 td.num 값 (퍼센트)
func parseRiskFreeHTML(body []byte) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse html: %w", err)
	}

	rate := 0.0
	found := false
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("td.date").Length() == 0 {
			return true
		}

		text := strings.TrimSpace(row.Find("td.num").First().Text())
		text = strings.ReplaceAll(text, ",", "")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return true
		}

		rate = v / 100
		found = true
		return false
	})

	if !found {
		return 0, ErrRateNotFound
	}
	return rate, nil
}
