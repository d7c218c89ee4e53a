package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
)

var (
	trailingComma = regexp.MustCompile(`,\s*\]`)
	priceRow      = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)
)

// FetchCloses fetches daily closes from the Naver chart API
// ⭐ SSOT: Naver 일별 종가 호출은 이 함수에서만
// 결과는 날짜 오름차순, from/to 포함
func (c *Client) FetchCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	params := url.Values{}
	params.Set("symbol", code)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetch(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, err
	}

	closes, err := parseCloses(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse closes of %s: %w", code, err)
	}
	for i := range closes {
		closes[i].Code = code
	}

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"count": len(closes),
	}).Debug("Fetched closes")
	return closes, nil
}

// parseCloses parses the siseJson body
// 본문은 작은따옴표 헤더와 끝 쉼표를 포함한 JS 배열 리터럴
func parseCloses(body string) ([]contracts.ClosePrice, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")
	body = trailingComma.ReplaceAllString(body, "]")

	var closes []contracts.ClosePrice
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		closes = parseCloseJSON(rawData)
	} else {
		closes = parseCloseRegex(body)
	}

	sort.Slice(closes, func(i, j int) bool {
		return closes[i].Date.Before(closes[j].Date)
	})
	return closes, nil
}

// parseCloseJSON 컬럼: 날짜 | 시가 | 고가 | 저가 | 종가 | 거래량 | ...
func parseCloseJSON(rawData [][]interface{}) []contracts.ClosePrice {
	var closes []contracts.ClosePrice
	for _, row := range rawData {
		if len(row) < 5 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue // 헤더
		}

		price := toFloat64(row[4])
		if price <= 0 {
			continue
		}
		closes = append(closes, contracts.ClosePrice{Date: date, Close: price})
	}
	return closes
}

// parseCloseRegex parses row by row (fallback)
func parseCloseRegex(body string) []contracts.ClosePrice {
	var closes []contracts.ClosePrice
	for _, match := range priceRow.FindAllStringSubmatch(body, -1) {
		date, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(match[5], 64)
		if err != nil || price <= 0 {
			continue
		}
		closes = append(closes, contracts.ClosePrice{Date: date, Close: price})
	}
	return closes
}

// toFloat64 converts various types to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		n, _ := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n
	default:
		return 0
	}
}
