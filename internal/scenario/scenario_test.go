package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/engine"
	"github.com/sells-group/farm-advisor/internal/model"
)

func TestDefault(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	assert.Len(t, f.Samples, 4)
	assert.NotNil(t, f.Drought)
	assert.NotNil(t, f.Flood)
	assert.NotNil(t, f.Optimal)
	assert.Equal(t, "F001", f.Samples[0]["farmer_id"])
}

func TestFixture_All(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	all := f.All(3)
	require.Len(t, all, 6)

	var names []string
	for _, s := range all {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"Demo Scenario 1",
		"Demo Scenario 2",
		"Demo Scenario 3",
		"Drought Scenario",
		"Flood Scenario",
		"Optimal Scenario",
	}, names)
	assert.False(t, all[0].Special)
	assert.True(t, all[3].Special)

	assert.Len(t, f.All(0), 7)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		want    int
	}{
		{
			name: "samples only",
			yaml: "scenarios:\n  sample_scenarios:\n    - crop_type: rice\n      rainfall_mm: 40\n",
			want: 1,
		},
		{
			name: "special only",
			yaml: "scenarios:\n  flood_scenario:\n    crop_type: rice\n",
			want: 1,
		},
		{name: "empty", yaml: "scenarios: {}\n", wantErr: true},
		{name: "malformed", yaml: "scenarios: [\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, f.All(0), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  drought_scenario:\n    crop_type: sorghum\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.All(0), 1)
	assert.Equal(t, "sorghum", f.Drought["crop_type"])

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault_SpecialScenarioDecisions(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	e := engine.New(config.DefaultEngineConfig())
	tests := []struct {
		inputs map[string]any
		want   model.Decision
	}{
		{f.Drought, model.DecisionAvoidFarming},
		{f.Flood, model.DecisionAvoidFarming},
		{f.Optimal, model.DecisionProceed},
	}
	for _, tt := range tests {
		res := e.Run(context.Background(), tt.inputs)
		assert.Equal(t, tt.want, res.FinalDecision, "farmer %v", tt.inputs["farmer_id"])
		assert.Empty(t, res.ProcessingInfo.Errors)
	}
}
