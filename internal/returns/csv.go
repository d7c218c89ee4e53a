package returns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Kind tells ReadCSV whether cells hold returns or prices
type Kind string

const (
	KindReturns Kind = "returns"
	KindPrices  Kind = "prices"
)

const dateLayout = "2006-01-02"

// ReadCSV parses a table with a header row of asset names
// 첫 열 헤더가 "date"이면 날짜 열로 취급 (YYYY-MM-DD)
//
//	date,005930,000660
//	2024-01-02,0.0123,-0.0040
func ReadCSV(r io.Reader, kind Kind) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dated := len(header) > 0 && strings.EqualFold(strings.TrimSpace(header[0]), "date")
	assets := header
	if dated {
		assets = header[1:]
	}
	for i := range assets {
		assets[i] = strings.TrimSpace(assets[i])
	}

	var dates []time.Time
	var rows [][]float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cells := record
		if dated {
			d, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: date %q", line, ErrInvalidValue, record[0])
			}
			dates = append(dates, d)
			cells = record[1:]
		}

		row := make([]float64, len(cells))
		for i, cell := range cells {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %q", line, ErrInvalidValue, cell)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	if kind == KindPrices {
		return FromPrices(assets, dates, rows)
	}
	return NewSeries(assets, dates, rows)
}

// WriteCSV writes the series in the format ReadCSV accepts
func WriteCSV(w io.Writer, s *Series) error {
	writer := csv.NewWriter(w)

	header := s.Assets()
	if s.dates != nil {
		header = append([]string{"date"}, header...)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for t := 0; t < s.Len(); t++ {
		record := make([]string, 0, len(header))
		if s.dates != nil {
			record = append(record, s.dates[t].Format(dateLayout))
		}
		for i := range s.cols {
			record = append(record, strconv.FormatFloat(s.cols[i][t], 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
