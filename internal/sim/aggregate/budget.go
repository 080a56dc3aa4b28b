// Package aggregate folds encounters into steady-state hourly rates for
// single and composite targets.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/idlesim/internal/config"
)

// Mode selects how a stage is evaluated.
type Mode string

const (
	// ModeAuto uses the analytical method where it applies and Monte Carlo
	// otherwise.
	ModeAuto Mode = "auto"
	// ModeMonteCarlo always simulates encounters.
	ModeMonteCarlo Mode = "montecarlo"
	// ModeAnalytical requests closed-form evaluation; stages it cannot
	// express fall back to Monte Carlo.
	ModeAnalytical Mode = "analytical"
)

// Method records how a stage was actually evaluated.
type Method string

const (
	MethodMonteCarlo Method = "montecarlo"
	MethodAnalytical Method = "analytical"
	// MethodMixed marks a rollup over stages evaluated differently.
	MethodMixed Method = "mixed"
)

// Budget bounds the work spent on one target.
type Budget struct {
	Trials         int    `json:"trials"`
	Mode           Mode   `json:"mode"`
	MaxEncounterMs int64  `json:"maxEncounterMs"`
	SpawnDelayMs   int64  `json:"spawnDelayMs"`
	ProgressEvery  int    `json:"progressEvery"`
	Seed           uint64 `json:"seed"`
}

// BudgetFromConfig returns the default budget described by c.
func BudgetFromConfig(c config.SimulationConfig) Budget {
	return Budget{
		Trials:         c.Trials,
		Mode:           Mode(c.Mode),
		MaxEncounterMs: c.MaxEncounterMs,
		SpawnDelayMs:   c.SpawnDelayMs,
		ProgressEvery:  c.ProgressEvery,
		Seed:           c.Seed,
	}
}

// Validate checks the budget invariants.
//
// Postcondition: Returns nil iff every field is usable, or an error naming
// every violation.
func (b Budget) Validate() error {
	var errs []string
	if b.Trials < 1 {
		errs = append(errs, fmt.Sprintf("trials must be >= 1, got %d", b.Trials))
	}
	switch b.Mode {
	case ModeAuto, ModeMonteCarlo, ModeAnalytical:
	default:
		errs = append(errs, fmt.Sprintf("mode must be one of [auto, montecarlo, analytical], got %q", b.Mode))
	}
	if b.MaxEncounterMs < 1 {
		errs = append(errs, fmt.Sprintf("max encounter time must be >= 1ms, got %d", b.MaxEncounterMs))
	}
	if b.SpawnDelayMs < 0 {
		errs = append(errs, fmt.Sprintf("spawn delay must be >= 0, got %d", b.SpawnDelayMs))
	}
	if b.ProgressEvery < 0 {
		errs = append(errs, fmt.Sprintf("progress interval must be >= 0, got %d", b.ProgressEvery))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid budget: %s", strings.Join(errs, "; "))
	}
	return nil
}
