// Package cmd contains the labfleet CLI commands.
package cmd

import (
	"github.com/labfleet/labfleet/cmd/assess"
	"github.com/labfleet/labfleet/cmd/match"
	"github.com/labfleet/labfleet/cmd/query"
	"github.com/labfleet/labfleet/cmd/reports"
	"github.com/labfleet/labfleet/cmd/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "labfleet",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(assess.NewCommand())
	RootCmd.AddCommand(match.NewCommand())
	RootCmd.AddCommand(query.NewCommand())
	RootCmd.AddCommand(reports.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
