// Package reports contains the "labfleet reports" command for reviewing
// stored diagnosis reports.
package reports

import (
	"fmt"

	cmdutil "github.com/labfleet/labfleet/cmd/util"
	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/reportdb"
	"github.com/spf13/cobra"
)

// NewCommand returns the reports command
func NewCommand() *cobra.Command {
	var (
		configFile string
		flagConf   = config.Config{Logger: &logger.LoggerConfig{}}
		conf       config.Config
	)

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Review stored diagnosis reports.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			conf, err = cmdutil.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			return nil
		},
	}

	cmd.SetGlobalNormalizationFunc(cmdutil.NormalizeFlags)
	cmd.PersistentFlags().AddFlagSet(cmdutil.CommonFlags(&flagConf, &configFile))

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored reports.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := reportdb.Open(conf.ReportDB)
			if err != nil {
				return err
			}
			defer db.Close()

			reports, err := db.ListReports()
			if err != nil {
				return err
			}
			for _, rep := range reports {
				fmt.Printf("%s\t%s\t%s\tperfect=%v\n",
					rep.ID, rep.JobID, rep.CreatedAt.Format("2006-01-02T15:04:05Z"), rep.Perfect)
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get [reportID]",
		Short: "Print one stored report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := reportdb.Open(conf.ReportDB)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := db.GetReport(args[0])
			if err != nil {
				return err
			}
			if rep == nil {
				return fmt.Errorf("report %s not found", args[0])
			}
			fmt.Print(rep.Text)
			return nil
		},
	}

	last := &cobra.Command{
		Use:   "last [jobID]",
		Short: "Print the most recent report for a job.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := reportdb.Open(conf.ReportDB)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := db.LastReport(args[0])
			if err != nil {
				return err
			}
			if rep == nil {
				return fmt.Errorf("job %s has no stored reports", args[0])
			}
			fmt.Print(rep.Text)
			return nil
		},
	}

	cmd.AddCommand(list, get, last)
	return cmd
}
