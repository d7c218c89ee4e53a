package returns

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/frontier/internal/contracts"
)

// FromCloses aligns per-code close histories on their common dates and converts to returns
// 원본: 종가 DataFrame join → pct_change().dropna() (공통 날짜만 남김)
func FromCloses(codes []string, closes map[string][]contracts.ClosePrice) (*Series, error) {
	if len(codes) == 0 {
		return nil, ErrEmptySeries
	}

	byCode := make([]map[int64]float64, len(codes))
	var common map[int64]bool
	for i, code := range codes {
		history, ok := closes[code]
		if !ok || len(history) == 0 {
			return nil, fmt.Errorf("%w: no closes for %s", ErrEmptySeries, code)
		}

		m := make(map[int64]float64, len(history))
		for _, c := range history {
			m[dayKey(c.Date)] = c.Close
		}
		byCode[i] = m

		if common == nil {
			common = make(map[int64]bool, len(m))
			for d := range m {
				common[d] = true
			}
			continue
		}
		for d := range common {
			if _, ok := m[d]; !ok {
				delete(common, d)
			}
		}
	}

	days := make([]int64, 0, len(common))
	for d := range common {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	dates := make([]time.Time, len(days))
	prices := make([][]float64, len(days))
	for t, d := range days {
		dates[t] = time.Unix(d, 0).UTC()
		row := make([]float64, len(codes))
		for i := range codes {
			row[i] = byCode[i][d]
		}
		prices[t] = row
	}

	return FromPrices(codes, dates, prices)
}

// dayKey truncates to the calendar day in UTC
func dayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}
