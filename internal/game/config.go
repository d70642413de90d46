/*
Package game
File: config.go
Description:
    Mission balance configuration. Loaded from 'moonbase.yaml' so decay rates,
    build costs and win thresholds can be tuned without recompiling. When the
    file is absent the compiled-in defaults apply.
*/

package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DecayRates are the per-tick losses applied to the four gauges during the
// moonbase phase.
type DecayRates struct {
	Oxygen float64 `yaml:"oxygen" json:"oxygen"`
	Power  float64 `yaml:"power" json:"power"`
	Food   float64 `yaml:"food" json:"food"`
	Morale float64 `yaml:"morale" json:"morale"`
}

// WinConditions gate the "mission success" check, evaluated at day boundaries.
type WinConditions struct {
	MinModules int     `yaml:"min_modules" json:"min_modules"` // Distinct built types, landing excluded
	MinDays    int     `yaml:"min_days" json:"min_days"`
	MinMorale  float64 `yaml:"min_morale" json:"min_morale"`
}

// ModuleEffects are the fixed gameplay effects granted when a module finishes.
type ModuleEffects struct {
	HabitatOxygenPerTick float64 `yaml:"habitat_oxygen_per_tick" json:"habitat_oxygen_per_tick"` // Recurring, stacks per habitat
	LabMoraleBonus       float64 `yaml:"lab_morale_bonus" json:"lab_morale_bonus"`               // One-time
	CommsMoraleBonus     float64 `yaml:"comms_morale_bonus" json:"comms_morale_bonus"`           // One-time
	StoragePoolBonus     int     `yaml:"storage_pool_bonus" json:"storage_pool_bonus"`           // One-time, build pool
}

// Balance is the root tuning struct, mapping to the entire 'moonbase.yaml' file.
type Balance struct {
	StartingOxygen float64 `yaml:"starting_oxygen" json:"starting_oxygen"`
	StartingPower  float64 `yaml:"starting_power" json:"starting_power"`
	StartingFood   float64 `yaml:"starting_food" json:"starting_food"`
	StartingMorale float64 `yaml:"starting_morale" json:"starting_morale"`

	DecayIntervalSecs int `yaml:"decay_interval_secs" json:"decay_interval_secs"` // Real seconds between decay ticks
	DayDurationSecs   int `yaml:"day_duration_secs" json:"day_duration_secs"`     // Real seconds per moon day

	BuildPool int `yaml:"build_pool" json:"build_pool"` // Starting build-resource pool

	Decay   DecayRates    `yaml:"resource_decay"`
	Win     WinConditions `yaml:"win_conditions"`
	Effects ModuleEffects `yaml:"module_effects"`
	Modules []ModuleSpec  `yaml:"modules"` // Build catalog
}

// DefaultBalance mirrors the tuning the browser client was built against.
func DefaultBalance() *Balance {
	return &Balance{
		StartingOxygen:    100,
		StartingPower:     100,
		StartingFood:      100,
		StartingMorale:    100,
		DecayIntervalSecs: 1,
		DayDurationSecs:   60,
		BuildPool:         100,
		Decay:             DecayRates{Oxygen: 0.5, Power: 0.3, Food: 0.2, Morale: 0.1},
		Win:               WinConditions{MinModules: 4, MinDays: 5, MinMorale: 50},
		Effects: ModuleEffects{
			HabitatOxygenPerTick: 1,
			LabMoraleBonus:       10,
			CommsMoraleBonus:     15,
			StoragePoolBonus:     20,
		},
		Modules: []ModuleSpec{
			{Type: ModuleHabitat, Cost: 30, BuildSecs: 5},
			{Type: ModuleLab, Cost: 25, BuildSecs: 4},
			{Type: ModuleCommunications, Cost: 20, BuildSecs: 3},
			{Type: ModuleStorage, Cost: 15, BuildSecs: 2},
		},
	}
}

// LoadBalance reads the YAML balance file. A missing file is not an error; the
// defaults are returned so the server can boot from a bare checkout.
func LoadBalance(path string) (*Balance, error) {
	f, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultBalance(), nil
	}
	if err != nil {
		return nil, err
	}

	bal := DefaultBalance()
	if err := yaml.Unmarshal(f, bal); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bal, nil
}

// ModuleSpec looks up the build catalog entry for a module type.
// Returns nil if the type is not buildable (unknown, or "landing").
func (b *Balance) ModuleSpec(t ModuleType) *ModuleSpec {
	for i := range b.Modules {
		if b.Modules[i].Type == t {
			return &b.Modules[i]
		}
	}
	return nil
}
