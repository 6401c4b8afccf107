package models

import (
	"slices"
	"strings"
)

const (
	UniverseCustom = "Custom"
	UniverseFAANG  = "FAANG"
	UniverseBanks  = "BANKS"
)

// Universes are the preset ticker lists offered to the user. Custom means a free-form list.
var Universes = map[string][]string{
	UniverseCustom: {},
	UniverseFAANG:  {"AAPL", "AMZN", "GOOGL", "META", "NFLX"},
	UniverseBanks:  {"JPM", "GS", "MS", "BAC"},
}

// UniverseNames returns the preset names with Custom first.
func UniverseNames() []string {
	names := make([]string, 0, len(Universes))
	for name := range Universes {
		if name != UniverseCustom {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return append([]string{UniverseCustom}, names...)
}

// ParseTickers splits a comma separated list such as "aapl, msft ,NVDA".
func ParseTickers(input string) []string {
	return NormaliseTickers(strings.Split(input, ","))
}

// NormaliseTickers trims and upper-cases tickers, dropping empties and repeats but keeping order.
func NormaliseTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	res := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		res = append(res, t)
	}
	return res
}
