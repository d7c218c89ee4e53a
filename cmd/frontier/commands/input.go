package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/returns"
)

const dateLayout = "2006-01-02"

// inputFlags selects the return series of a command
// --csv (파일) 또는 --codes (Naver 조회) 중 하나, 둘 다 없으면 프로필 유니버스
type inputFlags struct {
	csvPath      string
	kind         string
	marketColumn string

	codes      []string
	marketCode string
	from       string
	to         string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "수익률/가격 CSV 파일 (헤더: [date,]자산...)")
	cmd.Flags().StringVar(&f.kind, "kind", string(returns.KindReturns), "CSV 값 종류 (returns|prices)")
	cmd.Flags().StringVar(&f.marketColumn, "market-column", "", "CSV에서 시장 대리지표로 쓸 열 (자산에서 제외)")

	cmd.Flags().StringSliceVar(&f.codes, "codes", nil, "종목 코드 (예: 005930,000660)")
	cmd.Flags().StringVar(&f.marketCode, "market", "", "시장 대리지표 종목 코드 (예: 069500)")
	cmd.Flags().StringVar(&f.from, "from", "", "시작일 YYYY-MM-DD (기본: to - SCHEDULE_LOOKBACK_DAYS)")
	cmd.Flags().StringVar(&f.to, "to", "", "종료일 YYYY-MM-DD (기본: 오늘)")
}

// input is a loaded series with its market proxy and annual risk-free rate
type input struct {
	series *returns.Series
	market []float64 // nil이면 SML 생략
	rf     float64
	source string
}

// load reads the series from CSV or market data
func (f *inputFlags) load(ctx context.Context, rt *runtime) (*input, error) {
	switch {
	case f.csvPath != "" && len(f.codes) > 0:
		return nil, fmt.Errorf("use either --csv or --codes, not both")
	case f.csvPath != "":
		return f.loadCSV(rt)
	case len(f.codes) > 0:
		return f.loadCodes(ctx, rt)
	case len(rt.cfg.Schedule.Codes) > 0:
		// --profile 또는 SCHEDULE_CODES 유니버스
		g := *f
		g.codes = rt.cfg.Schedule.Codes
		if g.marketCode == "" {
			g.marketCode = rt.cfg.Schedule.MarketCode
		}
		return g.loadCodes(ctx, rt)
	default:
		return nil, fmt.Errorf("--csv, --codes or --profile is required")
	}
}

// loadCSV reads a local file; 무위험수익률은 네트워크 조회 없이 flag/config 값 사용
func (f *inputFlags) loadCSV(rt *runtime) (*input, error) {
	kind := returns.Kind(f.kind)
	if kind != returns.KindReturns && kind != returns.KindPrices {
		return nil, fmt.Errorf("invalid --kind %q (valid: returns, prices)", f.kind)
	}

	file, err := os.Open(f.csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	series, err := returns.ReadCSV(file, kind)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.csvPath, err)
	}

	in := &input{
		series: series,
		rf:     rt.cfg.Engine.RiskFreeRate,
		source: f.csvPath,
	}
	if riskFreeRate >= 0 {
		in.rf = riskFreeRate
	}

	if f.marketColumn != "" {
		market, err := series.ColumnByName(f.marketColumn)
		if err != nil {
			return nil, err
		}
		assets := slices.DeleteFunc(series.Assets(), func(a string) bool { return a == f.marketColumn })
		if in.series, err = series.Select(assets...); err != nil {
			return nil, err
		}
		in.market = market
	}
	return in, nil
}

// loadCodes fetches closes through the loader (cache, breaker, DB store-through)
func (f *inputFlags) loadCodes(ctx context.Context, rt *runtime) (*input, error) {
	from, to, err := f.window(rt.cfg.Schedule.LookbackDays)
	if err != nil {
		return nil, err
	}

	in := &input{source: fmt.Sprintf("naver %s ~ %s", from.Format(dateLayout), to.Format(dateLayout))}
	if f.marketCode != "" {
		in.series, in.market, err = rt.loader.LoadWithMarket(ctx, f.codes, f.marketCode, from, to)
	} else {
		in.series, err = rt.loader.LoadSeries(ctx, f.codes, from, to)
	}
	if err != nil {
		return nil, err
	}

	if riskFreeRate >= 0 {
		in.rf = riskFreeRate
	} else {
		in.rf = rt.loader.RiskFreeRate(ctx, rt.cfg.Engine.RiskFreeRate)
	}
	return in, nil
}

func (f *inputFlags) window(lookbackDays int) (time.Time, time.Time, error) {
	to := time.Now()
	if f.to != "" {
		t, err := time.Parse(dateLayout, f.to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q (expected YYYY-MM-DD)", f.to)
		}
		to = t
	}

	from := to.AddDate(0, 0, -lookbackDays)
	if f.from != "" {
		t, err := time.Parse(dateLayout, f.from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", f.from)
		}
		from = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must be before --to")
	}
	return from, to, nil
}
