package analysis

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText renders the report as a plain-text document
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := &printer{w: tw}

	p.line(strings.Repeat("=", 80))
	p.line(center("PORTFOLIO ANALYSIS REPORT", 80))
	if r.Name != "" {
		p.line(center(r.Name, 80))
	}
	p.line(center(r.GeneratedAt.Format("2006-01-02 15:04:05"), 80))
	p.line(strings.Repeat("=", 80))

	p.section("1. ASSET STATISTICS")
	p.line("Asset\tAnnual Return\tAnnual Volatility\tPeriod Return\tPeriod Volatility")
	for _, a := range r.Assets {
		p.printf("%s\t%s\t%s\t%.6f\t%.6f\n", a.Asset, pct(a.AnnualReturn), pct(a.AnnualVolatility), a.PeriodReturn, a.PeriodVolatility)
	}

	p.section("2. CORRELATION MATRIX")
	p.matrix(r.assetNames(), r.Correlation.Matrix, "%.4f")
	p.printf("\nHighest Correlation:\t%.4f\n", r.Correlation.Highest)
	p.printf("Lowest Correlation:\t%.4f\n", r.Correlation.Lowest)

	p.section("3. COVARIANCE MATRIX (Annual)")
	p.matrix(r.assetNames(), r.AnnualCovariance, "%.6f")
	p.printf("\nCondition Number:\t%.3g\n", r.ConditionNumber)

	p.section("4. OPTIMAL PORTFOLIOS")
	p.portfolio("A. Maximum Sharpe Ratio Portfolio", r.MaxSharpe)
	p.portfolio("B. Minimum Variance Portfolio", r.MinVariance)

	p.section("5. CAPITAL MARKET LINE (CML)")
	if r.CML != nil {
		p.printf("Risk-Free Rate:\t%s (annual)\n", pct(r.CML.RiskFreeRate))
		p.printf("Market Portfolio Return:\t%s (annual)\n", pct(r.CML.MarketReturn))
		p.printf("Market Portfolio Volatility:\t%s (annual)\n", pct(r.CML.MarketVolatility))
		p.printf("Sharpe Ratio (Market):\t%.4f\n", r.CML.MarketSharpe)
		p.line("")
		p.line("Volatility\tExpected Return")
		for _, pt := range r.CMLPoints {
			p.printf("%s\t%s\n", pct(pt.Volatility), pct(pt.ExpectedReturn))
		}
	}

	p.section("6. EFFICIENT FRONTIER")
	p.printf("Solved points:\t%d\n\n", len(r.Frontier))
	p.line("Return\tVolatility\tSharpe Ratio")
	for _, pt := range r.FrontierSample {
		p.printf("%s\t%s\t%.4f\n", pct(pt.Return), pct(pt.Volatility), pt.Sharpe)
	}

	if len(r.SML) > 0 {
		p.section("7. SECURITY MARKET LINE (SML)")
		p.line("Asset\tBeta\tAlpha\tExpected\tRequired\tValuation")
		for _, rec := range r.SML {
			p.printf("%s\t%.4f\t%.6f\t%.6f\t%.6f\t%s\n", rec.Asset, rec.Beta, rec.Alpha, rec.ExpectedReturn, rec.RequiredReturn, rec.Valuation)
		}
	}

	p.section("KEY INSIGHTS & RECOMMENDATIONS")
	in := r.Insights
	p.printf("Number of assets:\t%d\n", in.NumAssets)
	p.printf("Average correlation:\t%.4f\n", in.AverageCorrelation)
	if in.SharpeMultiple > 0 {
		p.printf("Sharpe advantage:\t%.2fx over min variance\n", in.SharpeMultiple)
	} else {
		p.printf("Max Sharpe (annual):\t%.4f\n", r.MaxSharpe.Annual.Sharpe)
		p.printf("Min Variance Sharpe (annual):\t%.4f\n", r.MinVariance.Annual.Sharpe)
	}
	p.printf("Risk difference:\t%s\n", pct(in.RiskDifference))
	p.printf("Recommendation:\t%s\n", in.Message)

	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

func (r *Report) assetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Asset
	}
	return names
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

func (p *printer) section(title string) {
	p.printf("\n%s\n%s\n", title, strings.Repeat("-", 80))
}

func (p *printer) matrix(names []string, rows [][]float64, format string) {
	p.printf("\t%s\n", strings.Join(names, "\t"))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf(format, v)
		}
		p.printf("%s\t%s\n", names[i], strings.Join(cells, "\t"))
	}
}

func (p *printer) portfolio(title string, s PortfolioSummary) {
	p.printf("\n%s\n", title)
	for _, a := range s.Allocations {
		p.printf("  %s\t%s\n", a.Asset, pct(a.Weight))
	}
	p.printf("Expected Annual Return:\t%s\n", pct(s.Annual.Return))
	p.printf("Expected Annual Volatility:\t%s\n", pct(s.Annual.Volatility))
	p.printf("Sharpe Ratio (Annual):\t%.4f\n", s.Annual.Sharpe)
	if s.Risk != nil {
		for _, v := range s.Risk.Historical {
			p.printf("VaR %.0f%% (1 period):\t%s (CVaR %s)\n", v.Confidence*100, pct(v.VaR), pct(v.CVaR))
		}
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func center(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
