package returns

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptySeries    = errors.New("empty return series")
	ErrMisaligned     = errors.New("misaligned return series")
	ErrInvalidValue   = errors.New("invalid value in series")
	ErrDuplicateAsset = errors.New("duplicate asset")
	ErrUnknownAsset   = errors.New("unknown asset")
)

// Series is a time-aligned table of per-period fractional returns
// ⭐ SSOT: 행 = 기간, 열 = 자산, 생성 후 불변
// 모든 자산은 같은 기간 격자를 공유 (gap 없음)
type Series struct {
	assets []string
	dates  []time.Time // optional, len == periods when present
	cols   [][]float64 // cols[asset][period]
}

// NewSeries builds a series from row-major data (rows[t][i])
// dates may be nil; otherwise one per row
func NewSeries(assets []string, dates []time.Time, rows [][]float64) (*Series, error) {
	if len(assets) == 0 || len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	cols := make([][]float64, len(assets))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for t, row := range rows {
		if len(row) != len(assets) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMisaligned, t, len(row), len(assets))
		}
		for i, v := range row {
			cols[i][t] = v
		}
	}

	return newSeries(assets, dates, cols)
}

// NewSeriesFromColumns builds a series from column-major data (cols[i][t])
func NewSeriesFromColumns(assets []string, dates []time.Time, cols [][]float64) (*Series, error) {
	if len(assets) == 0 || len(cols) == 0 || len(cols[0]) == 0 {
		return nil, ErrEmptySeries
	}
	if len(cols) != len(assets) {
		return nil, fmt.Errorf("%w: %d columns for %d assets", ErrMisaligned, len(cols), len(assets))
	}

	copied := make([][]float64, len(cols))
	for i, c := range cols {
		if len(c) != len(cols[0]) {
			return nil, fmt.Errorf("%w: column %s has %d periods, want %d", ErrMisaligned, assets[i], len(c), len(cols[0]))
		}
		copied[i] = append([]float64(nil), c...)
	}

	return newSeries(assets, dates, copied)
}

func newSeries(assets []string, dates []time.Time, cols [][]float64) (*Series, error) {
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if seen[a] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, a)
		}
		seen[a] = true
	}

	periods := len(cols[0])
	if dates != nil && len(dates) != periods {
		return nil, fmt.Errorf("%w: %d dates for %d periods", ErrMisaligned, len(dates), periods)
	}

	for i, c := range cols {
		for t, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %s period %d", ErrInvalidValue, assets[i], t)
			}
		}
	}

	s := &Series{
		assets: append([]string(nil), assets...),
		cols:   cols,
	}
	if dates != nil {
		s.dates = append([]time.Time(nil), dates...)
	}
	return s, nil
}

// FromPrices converts a price table (rows[t][i]) to simple returns
// r_t = p_t / p_{t-1} − 1, 첫 행은 제거됨
func FromPrices(assets []string, dates []time.Time, prices [][]float64) (*Series, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price rows, got %d", ErrEmptySeries, len(prices))
	}

	rows := make([][]float64, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		prev, cur := prices[t-1], prices[t]
		if len(prev) != len(assets) || len(cur) != len(assets) {
			return nil, fmt.Errorf("%w: price row %d", ErrMisaligned, t)
		}
		row := make([]float64, len(assets))
		for i := range assets {
			if prev[i] <= 0 {
				return nil, fmt.Errorf("%w: non-positive price %v for %s", ErrInvalidValue, prev[i], assets[i])
			}
			row[i] = cur[i]/prev[i] - 1
		}
		rows[t-1] = row
	}

	var retDates []time.Time
	if dates != nil {
		if len(dates) != len(prices) {
			return nil, fmt.Errorf("%w: %d dates for %d price rows", ErrMisaligned, len(dates), len(prices))
		}
		retDates = dates[1:]
	}

	return NewSeries(assets, retDates, rows)
}

// Assets returns asset names in column order
func (s *Series) Assets() []string {
	return append([]string(nil), s.assets...)
}

// NumAssets returns the number of columns
func (s *Series) NumAssets() int {
	return len(s.assets)
}

// Len returns the number of periods
func (s *Series) Len() int {
	return len(s.cols[0])
}

// Dates returns period dates, nil when the series is undated
func (s *Series) Dates() []time.Time {
	if s.dates == nil {
		return nil
	}
	return append([]time.Time(nil), s.dates...)
}

// Column returns a copy of the i-th asset's returns
func (s *Series) Column(i int) []float64 {
	return append([]float64(nil), s.cols[i]...)
}

// ColumnByName returns a copy of the named asset's returns
func (s *Series) ColumnByName(asset string) ([]float64, error) {
	for i, a := range s.assets {
		if a == asset {
			return s.Column(i), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
}

// Matrix returns the periods × assets matrix
func (s *Series) Matrix() *mat.Dense {
	m := mat.NewDense(s.Len(), s.NumAssets(), nil)
	for i, c := range s.cols {
		m.SetCol(i, c)
	}
	return m
}

// Select returns a new series restricted to the named assets, in the given order
func (s *Series) Select(assets ...string) (*Series, error) {
	cols := make([][]float64, len(assets))
	for k, name := range assets {
		c, err := s.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		cols[k] = c
	}
	if len(cols) == 0 {
		return nil, ErrEmptySeries
	}
	return newSeries(assets, s.dates, cols)
}
