package config

import "sort"

var zeroGravity = &[2]float64{0, 0}

var Presets = map[string]map[string]*Config{
	"simple": {
		"energy": {
			Scenario: "simple", Solver: "hybrid_v3", TimeStep: 1.0 / 120, Ticks: 2400,
		},
		"baseline": {
			Scenario: "simple", Solver: "first_order", TimeStep: 1.0 / 120, Ticks: 2400,
		},
		"orbit": {
			Scenario: "simple", Solver: "hybrid_v3_cg", TimeStep: 1.0 / 120, Ticks: 2400,
			Gravity: zeroGravity,
		},
	},
	"double": {
		"chaos": {
			Scenario: "double", Solver: "hybrid_v4", TimeStep: 1.0 / 240, Ticks: 4800,
		},
		"coarse": {
			Scenario: "double", Solver: "second_order", TimeStep: 1.0 / 60, Ticks: 1200,
		},
	},
	"rope": {
		"settle": {
			Scenario: "rope", Solver: "hybrid_v3_pbd", TimeStep: 1.0 / 120, Ticks: 3000,
		},
		"weightless": {
			Scenario: "rope", Solver: "pbd", TimeStep: 1.0 / 120, Ticks: 1200,
			Gravity: zeroGravity,
		},
	},
	"bridge": {
		"rigid": {
			Scenario: "bridge", Solver: "hybrid_v3", TimeStep: 1.0 / 120, Ticks: 2400,
		},
		"iterative": {
			Scenario: "bridge", Solver: "hybrid_v3_cg", TimeStep: 1.0 / 120, Ticks: 2400,
			CG: CGConfig{Tolerance: 1e-8, MaxIterations: 200},
		},
	},
	"bridge_soft": {
		"springy": {
			Scenario: "bridge_soft", Solver: "hybrid_v3", TimeStep: 1.0 / 240, Ticks: 4800,
		},
	},
	"pulley_and_rail": {
		"haul": {
			Scenario: "pulley_and_rail", Solver: "first_order_prepass", TimeStep: 1.0 / 120, Ticks: 1200,
		},
	},
}

// GetPreset returns a copy of the preset with unset fields filled from the
// defaults, or nil if there is no such preset.
func GetPreset(scenarioName, preset string) *Config {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	p, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Scenario = p.Scenario
	cfg.Solver = p.Solver
	cfg.TimeStep = p.TimeStep
	cfg.Ticks = p.Ticks
	if p.Gravity != nil {
		g := *p.Gravity
		cfg.Gravity = &g
	}
	if p.CG.Tolerance > 0 {
		cfg.CG.Tolerance = p.CG.Tolerance
	}
	if p.CG.MaxIterations > 0 {
		cfg.CG.MaxIterations = p.CG.MaxIterations
	}
	return cfg
}

// ListPresets returns the sorted preset names for a scenario.
func ListPresets(scenarioName string) []string {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
