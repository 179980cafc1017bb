package assess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
	"github.com/labfleet/labfleet/query"
	"github.com/labfleet/labfleet/reportdb"
)

type fakeQuerier struct {
	labs   []*fleet.Lab
	err    error
	filter *query.DeviceFilter
}

func (f *fakeQuerier) QueryLabs(ctx context.Context, filter *query.DeviceFilter) ([]*fleet.Lab, error) {
	f.filter = filter
	return f.labs, f.err
}

type fakeStore struct {
	reports []*reportdb.Report
	err     error
}

func (f *fakeStore) PutReport(rep *reportdb.Report) error {
	f.reports = append(f.reports, rep)
	return f.err
}

func testLogger() *logger.Logger {
	log := logger.NewLogger("test", logger.DefaultConfig())
	log.Discard()
	return log
}

func TestDiagnose(t *testing.T) {
	job := singleSlotJob()
	busy := namedPerfect("serial-b")
	busy.Status = fleet.StatusBusy

	querier := &fakeQuerier{labs: []*fleet.Lab{
		labWith("l1", busy),
		labWith("l2", namedPerfect("serial-p")),
	}}
	store := &fakeStore{}
	d := NewDiagnostician(job, querier, store, config.DefaultConfig().Diagnostic, testLogger())

	rep, err := d.Diagnose(context.Background())
	if err != nil {
		t.Fatal("diagnose:", err)
	}
	if rep.JobID != job.ID {
		t.Error("unexpected job ID", rep.JobID)
	}
	if !rep.Perfect {
		t.Error("lab l2 holds a perfect device; report should be perfect")
	}
	if !strings.Contains(rep.Text, "Hostname: l2") {
		t.Error("report text missing lab l2:\n", rep.Text)
	}
	if len(store.reports) != 1 || store.reports[0].ID != rep.ID {
		t.Error("report should be persisted")
	}
	if d.LastReport() == nil || !d.LastReport().HasPerfectMatch() {
		t.Error("LastReport should expose the assessed labs")
	}

	// The permissive diagnostic filter includes public access and the
	// job's dimensions, but not status.
	if querier.filter == nil {
		t.Fatal("querier did not receive a filter")
	}
	found := false
	for _, o := range querier.filter.Owners {
		if o == fleet.PublicOwner {
			found = true
		}
	}
	if !found {
		t.Error("filter should always allow public devices")
	}
	if len(querier.filter.Statuses) != 0 {
		t.Error("diagnostic filter should not restrict status")
	}
}

func TestDiagnoseQueryError(t *testing.T) {
	job := singleSlotJob()
	querier := &fakeQuerier{err: errors.New("registry unreachable")}
	d := NewDiagnostician(job, querier, nil, config.DefaultConfig().Diagnostic, testLogger())

	_, err := d.Diagnose(context.Background())
	if err == nil {
		t.Error("expected an error when the registry query fails")
	}
}

func TestDiagnoseStoreErrorIsNotFatal(t *testing.T) {
	job := singleSlotJob()
	querier := &fakeQuerier{labs: []*fleet.Lab{labWith("l1", namedPerfect("p"))}}
	store := &fakeStore{err: errors.New("disk full")}
	d := NewDiagnostician(job, querier, store, config.DefaultConfig().Diagnostic, testLogger())

	rep, err := d.Diagnose(context.Background())
	if err != nil {
		t.Fatal("store failures should not fail the diagnosis:", err)
	}
	if rep == nil {
		t.Fatal("expected a report")
	}
}
