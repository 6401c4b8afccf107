package models

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinSimulations = 1_000
	MaxSimulations = 100_000
)

// ErrInvalidSettings is wrapped by every SettingsError.
var ErrInvalidSettings = errors.New("invalid simulation settings")

// SettingsError reports a single rejected field of SimulationSettings.
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

// SimulationSettings is what a user supplies for one optimisation run, either from the CLI or the API.
type SimulationSettings struct {
	Universe       string   `json:"universe"`
	Tickers        []string `json:"tickers"`
	Start          string   `json:"start"` // YYYY-MM-DD, inclusive
	End            string   `json:"end"`   // YYYY-MM-DD, exclusive
	NumSimulations int      `json:"numSimulations"`
	MinWeight      float64  `json:"minWeight"`
	MaxWeight      float64  `json:"maxWeight"`
	Alpha          float64  `json:"alpha"`
	RiskFreeRate   float64  `json:"riskFreeRate"`
	Seed           *uint64  `json:"seed"`
}

// DefaultSimulationSettings mirrors the dashboard defaults.
func DefaultSimulationSettings() SimulationSettings {
	return SimulationSettings{
		Universe:       UniverseCustom,
		Start:          "2020-01-01",
		NumSimulations: MinSimulations,
		MinWeight:      0,
		MaxWeight:      1,
		Alpha:          0.05,
		RiskFreeRate:   0,
	}
}

// ResolveTickers returns the universe preset when one is chosen, otherwise the normalised free-form list.
func (s SimulationSettings) ResolveTickers() []string {
	if preset, ok := Universes[s.Universe]; ok && len(preset) > 0 && len(s.Tickers) == 0 {
		return append([]string(nil), preset...)
	}
	return NormaliseTickers(s.Tickers)
}

// DateRange parses Start and End. An empty End means today.
func (s SimulationSettings) DateRange(now time.Time) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, &SettingsError{Field: "start", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s.Start)}
	}

	end := now.UTC().Truncate(24 * time.Hour)
	if s.End != "" {
		end, err = time.Parse(time.DateOnly, s.End)
		if err != nil {
			return time.Time{}, time.Time{}, &SettingsError{Field: "end", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s.End)}
		}
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, &SettingsError{Field: "start", Reason: "must be before end"}
	}

	return start, end, nil
}

// Validate checks the configuration surface bounds. Ticker availability is checked later against data.
func (s SimulationSettings) Validate() error {
	if len(s.ResolveTickers()) == 0 {
		return &SettingsError{Field: "tickers", Reason: "select at least one ticker"}
	}

	if s.NumSimulations < MinSimulations || s.NumSimulations > MaxSimulations {
		return &SettingsError{Field: "numSimulations", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinSimulations, MaxSimulations, s.NumSimulations)}
	}

	if err := checkFraction("minWeight", s.MinWeight); err != nil {
		return err
	}

	if err := checkFraction("maxWeight", s.MaxWeight); err != nil {
		return err
	}

	if s.MinWeight > s.MaxWeight {
		return &SettingsError{Field: "minWeight", Reason: fmt.Sprintf("%.4f exceeds maxWeight %.4f", s.MinWeight, s.MaxWeight)}
	}

	if err := checkFraction("alpha", s.Alpha); err != nil {
		return err
	}

	return checkFraction("riskFreeRate", s.RiskFreeRate)
}

// Params converts validated settings to engine parameters.
func (s SimulationSettings) Params() SimulationParams {
	seed := DefaultSeed
	if s.Seed != nil {
		seed = *s.Seed
	}

	return SimulationParams{
		RiskFreeRate:   s.RiskFreeRate,
		NumSimulations: s.NumSimulations,
		Alpha:          s.Alpha,
		MinWeight:      s.MinWeight,
		MaxWeight:      s.MaxWeight,
		Seed:           seed,
		Oversample:     DefaultOversample,
	}
}

func checkFraction(field string, v float64) error {
	// NaN fails both comparisons, so test for the valid range instead
	if !(v >= 0 && v <= 1) {
		return &SettingsError{Field: field, Reason: fmt.Sprintf("must be a fraction in [0, 1], got %v", v)}
	}
	return nil
}
