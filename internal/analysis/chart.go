package analysis

import (
	"errors"
	"fmt"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/wonny/frontier/internal/capm"
	"github.com/wonny/frontier/internal/contracts"
)

var ErrNotEnoughPoints = errors.New("not enough frontier points to chart")

// RenderFrontierChart draws the annualized frontier with the CML overlay as PNG
// X: 연율 변동성, Y: 연율 수익률 %
// 최소 분산점 아래 구간은 X축이 역행하므로 효율적 구간만 그림
// cml이 nil이면 frontier만 그림
func RenderFrontierChart(title string, frontier contracts.Frontier, cml *capm.CapitalMarketLine) ([]byte, error) {
	frontier = EfficientHalf(frontier)
	if len(frontier) < 2 {
		return nil, ErrNotEnoughPoints
	}

	labels := make([]string, len(frontier))
	curve := make([]float64, len(frontier))
	line := make([]float64, len(frontier))

	yMin, yMax := frontier[0].Return*100, frontier[0].Return*100
	for i, p := range frontier {
		labels[i] = fmt.Sprintf("%.1f%%", p.Volatility*100)
		curve[i] = p.Return * 100
		yMin = min(yMin, curve[i])
		yMax = max(yMax, curve[i])
		if cml != nil {
			line[i] = cml.ExpectedReturn(p.Volatility) * 100
			yMin = min(yMin, line[i])
			yMax = max(yMax, line[i])
		}
	}

	values := [][]float64{curve}
	names := []string{"Efficient Frontier"}
	if cml != nil {
		values = append(values, line)
		names = append(names, "CML")
	}

	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	yMin -= pad
	yMax += pad

	split := len(labels)
	if split > 10 {
		split = 10
	}

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title, "annual return % vs annual volatility"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(900),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("render frontier chart: %w", err)
	}
	return painter.Bytes()
}

// EfficientHalf returns the points from the minimum-volatility point upward
// frontier는 목표 수익률 오름차순
func EfficientHalf(frontier contracts.Frontier) contracts.Frontier {
	if len(frontier) == 0 {
		return frontier
	}
	lowest := 0
	for i, p := range frontier {
		if p.Volatility < frontier[lowest].Volatility {
			lowest = i
		}
	}
	return frontier[lowest:]
}
