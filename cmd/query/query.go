// Package query contains the "labfleet query" command, which queries
// the device registry for labs matching a job's pre-filter.
package query

import (
	"fmt"

	cmdutil "github.com/labfleet/labfleet/cmd/util"
	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/query"
	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

// NewCommand returns the query command
func NewCommand() *cobra.Command {
	var (
		configFile string
		jobFile    string
		filterOnly bool
		flagConf   = config.Config{Logger: &logger.LoggerConfig{}}
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the registry for labs matching a job's device filter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := cmdutil.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			job, err := cmdutil.LoadJob(jobFile)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), conf, job, filterOnly)
		},
	}

	cmd.SetGlobalNormalizationFunc(cmdutil.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(cmdutil.CommonFlags(&flagConf, &configFile))
	f.StringVar(&jobFile, "job", "", "Path to the YAML job document (required)")
	f.BoolVar(&filterOnly, "filter-only", false, "Print the translated device filter without querying")
	cmd.MarkFlagRequired("job")

	return cmd
}

// Run builds the job's device filter and queries the registry, printing
// the matching labs as YAML. With filterOnly it prints the filter itself,
// which is useful for debugging dimension translation.
func Run(ctx context.Context, conf config.Config, job *fleet.Job, filterOnly bool) error {
	filter := query.BuildFilter(job, query.AllFilterTypes...)

	if filterOnly {
		return printYaml(filter)
	}

	client, err := query.NewClient(conf.Registry)
	if err != nil {
		return err
	}
	labs, err := client.QueryLabs(ctx, filter)
	if err != nil {
		return err
	}
	if len(labs) == 0 {
		fmt.Println("No labs matched the filter.")
		return nil
	}
	return printYaml(labs)
}

func printYaml(v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
