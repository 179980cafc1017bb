// Package match contains the "labfleet match" command, which computes a
// device assignment for a job from a lab's device pool.
package match

import (
	"fmt"

	"github.com/ghodss/yaml"
	cmdutil "github.com/labfleet/labfleet/cmd/util"
	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/match"
	"github.com/labfleet/labfleet/metrics"
	"github.com/labfleet/labfleet/util"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

// NewCommand returns the match command
func NewCommand() *cobra.Command {
	var (
		configFile string
		jobFile    string
		labsFile   string
		flagConf   = config.Config{Logger: &logger.LoggerConfig{}}
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Compute a slot-ordered device assignment for a job.",
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
			labs, err := cmdutil.LoadLabs(labsFile)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), conf, job, labs)
		},
	}

	cmd.SetGlobalNormalizationFunc(cmdutil.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(cmdutil.CommonFlags(&flagConf, &configFile))
	f.AddFlagSet(cmdutil.MatcherFlags(&flagConf))
	f.StringVar(&jobFile, "job", "", "Path to the YAML job document (required)")
	f.StringVar(&labsFile, "labs", "", "Path to the YAML lab pool document (required)")
	cmd.MarkFlagRequired("job")
	cmd.MarkFlagRequired("labs")

	return cmd
}

// assignment is the printed result for one lab.
type assignment struct {
	Hostname string
	Serials  []string
}

// Run tries each lab's pool in turn and prints the first feasible
// assignment as YAML, or reports that no lab can fit the job.
func Run(ctx context.Context, conf config.Config, job *fleet.Job, labs []*fleet.Lab) error {
	log := logger.NewLogger("labfleet", conf.Logger)

	m, err := match.NewMatcher(conf.Matcher, log)
	if err != nil {
		return err
	}
	if s, ok := m.(interface{ Stop() }); ok {
		defer s.Stop()
	}
	instrumented := metrics.InstrumentMatcher(m)

	var errs util.MultiError
	for _, lab := range labs {
		pool := match.FilterPool(lab.Devices, job)
		result, err := instrumented.Match(ctx, pool, job)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, fmt.Errorf("lab %s: %v", lab.Hostname, err))
			continue
		}
		if result == nil {
			log.Debug("no feasible assignment", "hostname", lab.Hostname)
			continue
		}

		out := assignment{Hostname: lab.Hostname}
		for _, d := range result {
			out.Serials = append(out.Serials, d.Serial)
		}
		y, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Print(string(y))
		return nil
	}
	if err := errs.ToError(); err != nil {
		return err
	}
	return fmt.Errorf("no lab can satisfy all %d device requirements", len(job.Requirements))
}
