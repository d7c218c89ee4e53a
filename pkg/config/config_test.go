package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Engine.PeriodsPerYear != 252 {
		t.Errorf("Expected PeriodsPerYear to be 252, got %v", cfg.Engine.PeriodsPerYear)
	}

	if cfg.Engine.ConditionThreshold != 1e10 {
		t.Errorf("Expected ConditionThreshold to be 1e10, got %v", cfg.Engine.ConditionThreshold)
	}

	if cfg.Engine.RiskFreeRate != 0.045 {
		t.Errorf("Expected RiskFreeRate to be 0.045, got %v", cfg.Engine.RiskFreeRate)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("PERIODS_PER_YEAR", "12")
	os.Setenv("FRONTIER_POINTS", "50")
	os.Setenv("SCHEDULE_CODES", "005930, 000660,,035420")
	os.Setenv("ALLOWED_ORIGINS", "https://dash.example.com")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("PERIODS_PER_YEAR")
		os.Unsetenv("FRONTIER_POINTS")
		os.Unsetenv("SCHEDULE_CODES")
		os.Unsetenv("ALLOWED_ORIGINS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Engine.PeriodsPerYear != 12 {
		t.Errorf("Expected PeriodsPerYear to be 12, got %v", cfg.Engine.PeriodsPerYear)
	}

	if cfg.Engine.FrontierPoints != 50 {
		t.Errorf("Expected FrontierPoints to be 50, got %d", cfg.Engine.FrontierPoints)
	}

	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://dash.example.com" {
		t.Errorf("Expected one allowed origin, got %v", cfg.AllowedOrigins)
	}

	want := []string{"005930", "000660", "035420"}
	if len(cfg.Schedule.Codes) != len(want) {
		t.Fatalf("Expected %d codes, got %v", len(want), cfg.Schedule.Codes)
	}
	for i := range want {
		if cfg.Schedule.Codes[i] != want[i] {
			t.Errorf("Expected code %s at %d, got %s", want[i], i, cfg.Schedule.Codes[i])
		}
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidPeriods(t *testing.T) {
	os.Setenv("PERIODS_PER_YEAR", "0")
	defer os.Unsetenv("PERIODS_PER_YEAR")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when PERIODS_PER_YEAR is 0, got nil")
	}
}

func TestDefaultEngineIsValid(t *testing.T) {
	if err := DefaultEngine().Validate(); err != nil {
		t.Errorf("Expected default engine config to be valid, got %v", err)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT", "1e-8")
	defer os.Unsetenv("TEST_FLOAT")

	value := getEnvAsFloat("TEST_FLOAT", 1)
	if value != 1e-8 {
		t.Errorf("Expected value to be 1e-8, got %v", value)
	}

	os.Setenv("TEST_FLOAT", "not-a-number")
	if value := getEnvAsFloat("TEST_FLOAT", 1); value != 1 {
		t.Errorf("Expected fallback 1, got %v", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
