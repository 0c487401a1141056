package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/farm-advisor/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in the temp dir.
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RequestsPerSec, 0.001)
	assert.Equal(t, 40, cfg.Server.Burst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeoutS)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentScenarios)

	assert.True(t, cfg.Engine.ConcurrentStages)
	assert.Equal(t, DefaultEngineConfig().Risk, cfg.Engine.Risk)
	assert.Equal(t, DefaultEngineConfig().Soils, cfg.Engine.Soils)
	assert.InDelta(t, 0.85, cfg.Engine.RiskBands.High, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent_scenarios: 2
engine:
  concurrent_stages: false
  risk:
    conservative_buffer: 0.1
  irrigation:
    max_daily_mm: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Batch.MaxConcurrentScenarios)
	assert.False(t, cfg.Engine.ConcurrentStages)
	assert.InDelta(t, 0.1, cfg.Engine.Risk.ConservativeBuffer, 0.0001)
	assert.InDelta(t, 20, cfg.Engine.Irrigation.MaxDailyMM, 0.0001)

	// Untouched engine values keep their defaults.
	assert.InDelta(t, 0.35, cfg.Engine.Risk.DiseaseWeight, 0.0001)
	assert.InDelta(t, 100, cfg.Engine.Irrigation.MaxWeeklyMM, 0.0001)
	assert.Equal(t, 40, cfg.Server.Burst)
}

func TestLoadRejectsInconsistentEngine(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
engine:
  risk:
    yield_weight: 0.9
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk weights should sum to 1")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("FARM_LOG_LEVEL", "warn")
	t.Setenv("FARM_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FARM_BATCH_MAX_CONCURRENT_SCENARIOS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentScenarios)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestValidateEngine_Defaults(t *testing.T) {
	assert.NoError(t, ValidateEngine(DefaultEngineConfig()))
}

func TestValidateEngine_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *EngineConfig)
		want   string
	}{
		{"yield weights", func(c *EngineConfig) { c.Yield.CropWeight = 0.5 }, "yield weights should sum to 1"},
		{"disease weights", func(c *EngineConfig) { c.Disease.BasePresence = 0 }, "disease weights should sum to 1"},
		{"temperature bands", func(c *EngineConfig) { c.Temperature.CriticalLow = 20 }, "temperature bands"},
		{"rainfall bands", func(c *EngineConfig) { c.Rainfall.Medium = 5 }, "rainfall bands"},
		{"humidity bands", func(c *EngineConfig) { c.Humidity.DiseaseRisk = 50 }, "humidity bands"},
		{"risk band order", func(c *EngineConfig) { c.RiskBands.Medium = 0.9 }, "risk bands must be strictly increasing"},
		{"risk band range", func(c *EngineConfig) { c.RiskBands.High = 1.2 }, "risk bands must lie within [0, 1]"},
		{"confidence tiers", func(c *EngineConfig) { c.Confidence.Low = 0.7 }, "confidence tiers"},
		{"input temperature range", func(c *EngineConfig) { c.Inputs.MinTemperatureC = 70 }, "min_temperature_c"},
		{"default soil", func(c *EngineConfig) { c.Inputs.DefaultSoilType = "peat" }, `"peat" is not a supported soil`},
		{"soil interval", func(c *EngineConfig) { c.Soils.Sandy.IrrigationIntervalDays = 0 }, "soils.sandy.irrigation_interval_days"},
		{"soil rate", func(c *EngineConfig) { c.Soils.Clay.ApplicationRateMMPerHr = 0 }, "soils.clay.application_rate_mm_per_hour"},
		{"daily ceiling", func(c *EngineConfig) { c.Irrigation.MaxDailyMM = 0 }, "irrigation.max_daily_mm"},
		{"safety margin", func(c *EngineConfig) { c.Irrigation.SafetyMargin = 1 }, "irrigation.safety_margin"},
		{"supply fraction", func(c *EngineConfig) { c.Irrigation.SupplyFraction = 0 }, "irrigation.supply_fraction"},
		{"yield floor", func(c *EngineConfig) { c.Yield.MinPercent = 90 }, "yield.min_percent"},
		{"economic thresholds", func(c *EngineConfig) { c.Decision.EconomicReduce = 0.8 }, "decision.economic_reduce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultEngineConfig()
			tt.mutate(&c)

			err := ValidateEngine(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateEngine_CollectsEveryProblem(t *testing.T) {
	c := DefaultEngineConfig()
	c.Irrigation.MaxDailyMM = 0
	c.Irrigation.MaxWeeklyMM = 0

	err := ValidateEngine(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "irrigation.max_daily_mm")
	assert.Contains(t, err.Error(), "irrigation.max_weekly_mm")
}

func TestRiskBands_Level(t *testing.T) {
	b := DefaultEngineConfig().RiskBands
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{0.59, model.RiskLow},
		{0.6, model.RiskMedium},
		{0.849, model.RiskMedium},
		{0.85, model.RiskHigh},
		{1, model.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Level(tt.score), "score=%v", tt.score)
	}
}

func TestSoilProfiles_Profile(t *testing.T) {
	soils := DefaultEngineConfig().Soils

	p, ok := soils.Profile(model.SoilSandy)
	require.True(t, ok)
	assert.Equal(t, 3, p.IrrigationIntervalDays)

	_, ok = soils.Profile(model.SoilType("PEAT"))
	assert.False(t, ok)
}

func TestTemperatureBands_Optimal(t *testing.T) {
	b := DefaultEngineConfig().Temperature
	assert.True(t, b.Optimal(15))
	assert.True(t, b.Optimal(30))
	assert.False(t, b.Optimal(31))
	assert.False(t, b.Optimal(14.9))
}

func TestDefaultEngineConfig_FreshMaps(t *testing.T) {
	a := DefaultEngineConfig()
	a.Yield.CropBonus["rice"] = 9

	assert.InDelta(t, 0.1, DefaultEngineConfig().Yield.CropBonus["rice"], 0.0001)
}
