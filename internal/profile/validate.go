package profile

import (
	"fmt"
	"math"
	"regexp"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var codePattern = regexp.MustCompile(`^[0-9A-Z]{6}$`)

// scheduleParser 스케줄러와 동일한 초 포함 파서
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if p.Meta.Schedule != "" {
		if _, err := scheduleParser.Parse(p.Meta.Schedule); err != nil {
			return ValidationError{"meta.schedule", err.Error()}
		}
	}

	// === Universe ===
	if len(p.Universe.Codes) < 2 {
		return ValidationError{"universe.codes", "at least 2 codes required"}
	}
	seen := make(map[string]bool, len(p.Universe.Codes))
	for _, code := range p.Universe.Codes {
		if !codePattern.MatchString(code) {
			return ValidationError{"universe.codes", fmt.Sprintf("invalid code %q (6 chars, quote leading zeros)", code)}
		}
		if seen[code] {
			return ValidationError{"universe.codes", fmt.Sprintf("duplicate code %q", code)}
		}
		seen[code] = true
	}
	if p.Universe.MarketCode != "" {
		if !codePattern.MatchString(p.Universe.MarketCode) {
			return ValidationError{"universe.market_code", fmt.Sprintf("invalid code %q", p.Universe.MarketCode)}
		}
		if seen[p.Universe.MarketCode] {
			return ValidationError{"universe.market_code", "must not be one of universe.codes"}
		}
	}

	// === Window ===
	if p.Window.LookbackDays < 0 {
		return ValidationError{"window.lookback_days", "must be >= 0"}
	}

	// === Engine ===
	if p.Engine.PeriodsPerYear < 0 {
		return ValidationError{"engine.periods_per_year", "must be >= 0"}
	}
	if rf := p.Engine.RiskFreeRate; rf != nil && (math.IsNaN(*rf) || *rf < 0 || *rf > 1) {
		return ValidationError{"engine.risk_free_rate", "must be in range [0, 1]"}
	}
	if p.Engine.FrontierPoints < 0 {
		return ValidationError{"engine.frontier_points", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	// 자산 수 대비 관측치 부족 경고 (일간 기준 대략 0.7 거래일/일)
	if p.Window.LookbackDays > 0 && float64(p.Window.LookbackDays)*0.7 < float64(10*len(p.Universe.Codes)) {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WINDOW",
			Message: "관측치 < 자산 수 × 10: 공분산 추정 불안정",
		})
	}

	// SML 생략 안내
	if p.Universe.MarketCode == "" {
		warnings = append(warnings, Warning{
			Code:    "NO_MARKET",
			Message: "market_code 미지정: SML 분석 생략",
		})
	}

	return warnings
}
