// Package config contains labfleet configuration structs and defaults.
package config

import (
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/labfleet/labfleet/logger"
)

// Matcher strategy names.
const (
	StrategyBipartite   = "bipartite"
	StrategyPermutation = "permutation"
)

// Config describes configuration for labfleet.
type Config struct {
	Registry   Registry
	Matcher    Matcher
	Diagnostic Diagnostic
	ReportDB   ReportDB
	Logger     *logger.LoggerConfig
}

// Registry describes the device registry query service endpoint.
type Registry struct {
	Address  string
	Timeout  Duration
	MaxTries int
}

// Matcher configures the exact matcher.
type Matcher struct {
	// Strategy selects the matching algorithm, "bipartite" (default)
	// or "permutation".
	Strategy string

	// Shuffle randomizes the device pool before the bipartite matcher
	// builds its compatibility graph, so that repeated calls spread
	// assignments across equally compatible devices.
	Shuffle bool

	// SearchTimeout bounds the permutation strategy's search.
	SearchTimeout Duration

	// Workers is the size of the permutation strategy's worker pool.
	Workers int
}

// Diagnostic configures pool assessment reports.
type Diagnostic struct {
	// MaxLabs is the number of top-scoring labs kept in one report.
	MaxLabs int

	// MaxCandidates is the number of candidate devices listed per
	// requirement in the readable report.
	MaxCandidates int
}

// ReportDB configures the diagnosis report history store.
type ReportDB struct {
	Path string
}

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	return Config{
		Registry: Registry{
			Address:  "localhost:8000",
			Timeout:  Duration(time.Second * 30),
			MaxTries: 3,
		},
		Matcher: Matcher{
			Strategy:      StrategyBipartite,
			SearchTimeout: Duration(time.Second * 10),
			Workers:       4,
		},
		Diagnostic: Diagnostic{
			MaxLabs:       15,
			MaxCandidates: 5,
		},
		ReportDB: ReportDB{
			Path: "labfleet-reports.db",
		},
		Logger: logger.DefaultConfig(),
	}
}

// Validate checks the configuration for basic mistakes and returns all of
// them at once.
func Validate(c Config) error {
	var result *multierror.Error

	switch c.Matcher.Strategy {
	case StrategyBipartite, StrategyPermutation:
	default:
		result = multierror.Append(result,
			errf("matcher.strategy: unknown strategy %q", c.Matcher.Strategy))
	}
	if c.Matcher.SearchTimeout <= 0 {
		result = multierror.Append(result,
			errf("matcher.searchtimeout: must be positive"))
	}
	if c.Matcher.Workers <= 0 {
		result = multierror.Append(result,
			errf("matcher.workers: must be positive"))
	}
	if c.Diagnostic.MaxLabs <= 0 {
		result = multierror.Append(result,
			errf("diagnostic.maxlabs: must be positive"))
	}
	if c.Diagnostic.MaxCandidates <= 0 {
		result = multierror.Append(result,
			errf("diagnostic.maxcandidates: must be positive"))
	}
	if c.Registry.MaxTries <= 0 {
		result = multierror.Append(result,
			errf("registry.maxtries: must be positive"))
	}
	return result.ErrorOrNil()
}
