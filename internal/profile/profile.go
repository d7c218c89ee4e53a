package profile

import "time"

// Profile는 정기 재최적화 대상 유니버스와 엔진 설정 묶음
// 환경변수(SCHEDULE_*, PERIODS_PER_YEAR 등)보다 우선 적용
type Profile struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Universe Universe `yaml:"universe" json:"universe"`
	Window   Window   `yaml:"window" json:"window"`
	Engine   Engine   `yaml:"engine" json:"engine"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
	Schedule  string `yaml:"schedule" json:"schedule"` // cron (초 포함), 비어 있으면 SCHEDULE_CRON
}

// Universe 최적화 대상 종목
type Universe struct {
	Codes      []string `yaml:"codes" json:"codes"`
	MarketCode string   `yaml:"market_code" json:"market_code"` // SML 시장 대리지표 (선택)
}

// Window 수익률 조회 구간
type Window struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

// Engine 엔진 상수 override (0/nil이면 기존 값 유지)
type Engine struct {
	PeriodsPerYear float64  `yaml:"periods_per_year" json:"periods_per_year"`
	RiskFreeRate   *float64 `yaml:"risk_free_rate,omitempty" json:"risk_free_rate,omitempty"` // 연율, 0 허용
	FrontierPoints int      `yaml:"frontier_points" json:"frontier_points"`
}

// Snapshot 적용된 프로필 기록 (재현성용)
type Snapshot struct {
	Hash      string    `json:"hash"`
	ProfileID string    `json:"profile_id"`
	Version   string    `json:"version"`
	YAML      string    `json:"yaml"`
	LoadedAt  time.Time `json:"loaded_at"`
}
