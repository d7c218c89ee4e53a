package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/frontier/pkg/config"
)

// Load reads a YAML profile file and returns it with the raw bytes
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	p, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, data, err
	}
	return p, data, nil
}

// Decode parses and validates a profile
// ⭐ SSOT: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Decode(r io.Reader) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash generates SHA256 hash from Profile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewSnapshot creates a snapshot of the applied profile
func NewSnapshot(p *Profile, yamlData []byte) (*Snapshot, error) {
	hash, err := Hash(p)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Hash:      hash,
		ProfileID: p.Meta.ProfileID,
		Version:   p.Meta.Version,
		YAML:      string(yamlData),
		LoadedAt:  time.Now(),
	}, nil
}

// ApplyTo overrides the schedule and engine settings of cfg
func (p *Profile) ApplyTo(cfg *config.Config) {
	cfg.Schedule.Codes = append([]string(nil), p.Universe.Codes...)
	cfg.Schedule.MarketCode = p.Universe.MarketCode
	if p.Meta.Schedule != "" {
		cfg.Schedule.Cron = p.Meta.Schedule
	}
	if p.Window.LookbackDays > 0 {
		cfg.Schedule.LookbackDays = p.Window.LookbackDays
	}

	if p.Engine.PeriodsPerYear > 0 {
		cfg.Engine.PeriodsPerYear = p.Engine.PeriodsPerYear
	}
	if p.Engine.RiskFreeRate != nil {
		cfg.Engine.RiskFreeRate = *p.Engine.RiskFreeRate
	}
	if p.Engine.FrontierPoints > 0 {
		cfg.Engine.FrontierPoints = p.Engine.FrontierPoints
	}
}
