package assess

import (
	"fmt"
	"time"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/metrics"
	"github.com/labfleet/labfleet/query"
	"github.com/labfleet/labfleet/reportdb"
	"github.com/labfleet/labfleet/util"
	"golang.org/x/net/context"
)

// Querier fetches candidate labs from the device registry.
type Querier interface {
	QueryLabs(ctx context.Context, filter *query.DeviceFilter) ([]*fleet.Lab, error)
}

// ReportStore persists generated reports. May be nil to skip persistence.
type ReportStore interface {
	PutReport(rep *reportdb.Report) error
}

// Diagnostician explains why a job failed to allocate devices. It queries
// the registry with a permissive filter, assesses every returned lab, and
// produces a readable report of the closest matches.
type Diagnostician struct {
	job     *fleet.Job
	querier Querier
	store   ReportStore
	conf    config.Diagnostic
	log     *logger.Logger

	lastReport *LabReport
}

// NewDiagnostician returns a Diagnostician for the given job.
func NewDiagnostician(job *fleet.Job, querier Querier, store ReportStore, conf config.Diagnostic, log *logger.Logger) *Diagnostician {
	return &Diagnostician{
		job:     job,
		querier: querier,
		store:   store,
		conf:    conf,
		log:     log,
	}
}

// Diagnose queries the registry and assesses every returned lab against
// the job. The filter is deliberately permissive so near misses show up
// in the report rather than being filtered out server side.
func (d *Diagnostician) Diagnose(ctx context.Context) (*reportdb.Report, error) {
	filter := query.BuildFilter(d.job,
		query.FilterAccess, query.FilterDimension, query.FilterDriver)

	labs, err := d.querier.QueryLabs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("querying device registry: %v", err)
	}
	d.log.Debug("assessing labs", "job", d.job.ID, "labs", len(labs))

	report := NewLabReport(d.job).WithLimits(d.conf.MaxLabs, d.conf.MaxCandidates)
	for _, lab := range labs {
		report.AddLab(NewLabAssessment(d.job).AddLab(lab))
		metrics.LabsAssessed.Inc()
	}
	d.lastReport = report

	rep := &reportdb.Report{
		ID:        util.GenReportID(),
		JobID:     d.job.ID,
		CreatedAt: time.Now().UTC(),
		Perfect:   report.HasPerfectMatch(),
		Text:      report.String(),
	}
	if d.store != nil {
		if err := d.store.PutReport(rep); err != nil {
			// Persistence is best effort; the diagnosis itself succeeded.
			d.log.Error("storing report", err)
		}
	}
	metrics.ReportsGenerated.Inc()
	return rep, nil
}

// LastReport returns the report produced by the most recent Diagnose call,
// or nil if Diagnose has not run.
func (d *Diagnostician) LastReport() *LabReport {
	return d.lastReport
}
