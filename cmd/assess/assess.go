// Package assess contains the "labfleet assess" command, which explains
// why a job's device requirements cannot be allocated.
package assess

import (
	"fmt"

	"github.com/labfleet/labfleet/assess"
	cmdutil "github.com/labfleet/labfleet/cmd/util"
	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/query"
	"github.com/labfleet/labfleet/reportdb"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

// NewCommand returns the assess command
func NewCommand() *cobra.Command {
	var (
		configFile string
		jobFile    string
		labsFile   string
		flagConf   = config.Config{Logger: &logger.LoggerConfig{}}
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Diagnose why a job cannot allocate devices.",
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
			return Run(cmd.Context(), conf, job, labsFile)
		},
	}

	cmd.SetGlobalNormalizationFunc(cmdutil.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(cmdutil.CommonFlags(&flagConf, &configFile))
	f.StringVar(&jobFile, "job", "", "Path to the YAML job document (required)")
	f.StringVar(&labsFile, "labs", "", "Assess labs from a YAML file instead of querying the registry")
	cmd.MarkFlagRequired("job")

	return cmd
}

// Run diagnoses the job against labs from the registry, or from a local
// file when labsFile is set, and prints the readable report.
func Run(ctx context.Context, conf config.Config, job *fleet.Job, labsFile string) error {
	log := logger.NewLogger("labfleet", conf.Logger)

	var querier assess.Querier
	if labsFile != "" {
		labs, err := cmdutil.LoadLabs(labsFile)
		if err != nil {
			return err
		}
		querier = staticLabs(labs)
	} else {
		client, err := query.NewClient(conf.Registry)
		if err != nil {
			return err
		}
		querier = client
	}

	var store assess.ReportStore
	if conf.ReportDB.Path != "" {
		db, err := reportdb.Open(conf.ReportDB)
		if err != nil {
			return fmt.Errorf("opening report db: %v", err)
		}
		defer db.Close()
		store = db
	}

	d := assess.NewDiagnostician(job, querier, store, conf.Diagnostic, log)
	rep, err := d.Diagnose(ctx)
	if err != nil {
		return err
	}
	fmt.Print(rep.Text)
	return nil
}

// staticLabs satisfies assess.Querier from an in-memory lab list, so the
// command works without a registry.
type staticLabs []*fleet.Lab

func (s staticLabs) QueryLabs(ctx context.Context, filter *query.DeviceFilter) ([]*fleet.Lab, error) {
	return s, nil
}
