// Package scenario loads the demo field records run by the demo command.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultFixture []byte

// Fixture is the set of demo field records: regular samples plus three
// special cases.
type Fixture struct {
	Samples []map[string]any `yaml:"sample_scenarios"`
	Drought map[string]any   `yaml:"drought_scenario"`
	Flood   map[string]any   `yaml:"flood_scenario"`
	Optimal map[string]any   `yaml:"optimal_scenario"`
}

// Scenario is one named field record.
type Scenario struct {
	Name    string
	Special bool
	Inputs  map[string]any
}

// Default returns the embedded fixture.
func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads a fixture from a YAML file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read fixture %s", path)
	}
	return Parse(data)
}

// Parse decodes a fixture. The YAML has a top-level "scenarios" key.
func Parse(data []byte) (*Fixture, error) {
	var wrapper struct {
		Scenarios Fixture `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scenario: parse fixture")
	}

	f := &wrapper.Scenarios
	if len(f.Samples) == 0 && f.Drought == nil && f.Flood == nil && f.Optimal == nil {
		return nil, eris.New("scenario: fixture has no scenarios")
	}
	return f, nil
}

// All lists the first maxSamples regular scenarios followed by the special
// ones that are present. maxSamples <= 0 keeps every sample.
func (f *Fixture) All(maxSamples int) []Scenario {
	samples := f.Samples
	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}

	out := make([]Scenario, 0, len(samples)+3)
	for i, s := range samples {
		out = append(out, Scenario{Name: fmt.Sprintf("Demo Scenario %d", i+1), Inputs: s})
	}
	for _, sp := range []struct {
		name   string
		inputs map[string]any
	}{
		{"Drought Scenario", f.Drought},
		{"Flood Scenario", f.Flood},
		{"Optimal Scenario", f.Optimal},
	} {
		if sp.inputs != nil {
			out = append(out, Scenario{Name: sp.name, Special: true, Inputs: sp.inputs})
		}
	}
	return out
}
