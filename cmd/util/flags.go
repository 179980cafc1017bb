package util

import (
	"github.com/labfleet/labfleet/config"
	"github.com/spf13/pflag"
)

// CommonFlags returns the flag set shared by all labfleet commands.
func CommonFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("common", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config file")
	f.StringVar(&flagConf.Registry.Address, "Registry.Address", flagConf.Registry.Address,
		"Address of the device registry query service")
	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level,
		"Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile,
		"File path to write logs to")

	return f
}

// MatcherFlags returns flags controlling the exact matcher.
func MatcherFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("matcher", pflag.ContinueOnError)

	f.StringVar(&flagConf.Matcher.Strategy, "Matcher.Strategy", flagConf.Matcher.Strategy,
		"Matching strategy, 'bipartite' or 'permutation'")
	f.BoolVar(&flagConf.Matcher.Shuffle, "Matcher.Shuffle", flagConf.Matcher.Shuffle,
		"Shuffle the device pool before matching")
	f.Var(&flagConf.Matcher.SearchTimeout, "Matcher.SearchTimeout",
		"Wall-clock bound on the permutation search")

	return f
}
