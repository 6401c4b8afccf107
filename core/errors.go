package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInput      = errors.New("input error")
	ErrConstraint = errors.New("no valid portfolios found for the given constraints")
	ErrDataSource = errors.New("price data source error")
)

// InputError means the requested tickers could not be matched to usable price data.
type InputError struct {
	Requested []string
	Dropped   []string
	Reason    string
}

func (e *InputError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "no valid tickers found"
	}
	if len(e.Dropped) > 0 {
		msg = fmt.Sprintf("%s (dropped: %s)", msg, strings.Join(e.Dropped, ","))
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return ErrInput
}

// ConstraintError means no sampled weight vector satisfied the weight bounds.
type ConstraintError struct {
	MinWeight  float64
	MaxWeight  float64
	Assets     int
	Drawn      int
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s (min weight %.2f, max weight %.2f, %d assets, %d candidates drawn)",
		ErrConstraint.Error(), e.MinWeight, e.MaxWeight, e.Assets, e.Drawn)
}

func (e *ConstraintError) Unwrap() error {
	return ErrConstraint
}

// DataSourceError wraps a failure of the external price feed. Retrying is left to the caller.
type DataSourceError struct {
	Provider string
	Tickers  []string
	Err      error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("error fetching prices from %s for %s: %v", e.Provider, strings.Join(e.Tickers, ","), e.Err)
}

func (e *DataSourceError) Unwrap() []error {
	return []error{ErrDataSource, e.Err}
}
