package assess

import (
	"strings"
	"testing"

	"github.com/labfleet/labfleet/fleet"
)

func singleSlotJob() *fleet.Job {
	return &fleet.Job{
		ID:     "job-3",
		User:   "alice",
		Driver: "AndroidInstrumentation",
		Requirements: []*fleet.Requirement{
			{
				Type:       "AndroidRealDevice",
				Dimensions: map[string]string{"sdk_version": "33"},
				Decorators: []string{"ScreenRecorderDecorator"},
			},
		},
	}
}

func labWith(hostname string, devices ...*fleet.Device) *fleet.Lab {
	return &fleet.Lab{Hostname: hostname, Devices: devices}
}

func assessLab(job *fleet.Job, lab *fleet.Lab) *LabAssessment {
	return NewLabAssessment(job).AddLab(lab)
}

func TestReportKeepsTopLabs(t *testing.T) {
	job := singleSlotJob()

	perfect := namedPerfect("p")
	busy := namedPerfect("b")
	busy.Status = fleet.StatusBusy
	nodriver := namedPerfect("nd")
	nodriver.Drivers = nil
	foreign := namedPerfect("f")
	foreign.Owners = []string{"someone-else"}
	foreignBusy := namedPerfect("fb")
	foreignBusy.Owners = []string{"someone-else"}
	foreignBusy.Status = fleet.StatusBusy

	report := NewLabReport(job).WithLimits(3, 5)
	report.AddLab(assessLab(job, labWith("l4", foreign)))
	report.AddLab(assessLab(job, labWith("l1", perfect)))
	report.AddLab(assessLab(job, labWith("l5", foreignBusy)))
	report.AddLab(assessLab(job, labWith("l3", nodriver)))
	report.AddLab(assessLab(job, labWith("l2", busy)))

	sorted := report.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 retained labs, got %d", len(sorted))
	}
	var hosts []string
	for _, lab := range sorted {
		hosts = append(hosts, lab.Hostname())
	}
	want := []string{"l1", "l2", "l3"}
	for i := range want {
		if hosts[i] != want[i] {
			t.Fatalf("expected top labs %v, got %v", want, hosts)
		}
	}
}

func TestReportHasPerfectMatch(t *testing.T) {
	job := singleSlotJob()
	report := NewLabReport(job)
	report.AddLab(assessLab(job, labWith("l1", namedPerfect("p"))))
	if !report.HasPerfectMatch() {
		t.Error("expected a perfect match")
	}

	busy := namedPerfect("b")
	busy.Status = fleet.StatusBusy
	report2 := NewLabReport(job)
	report2.AddLab(assessLab(job, labWith("l1", busy)))
	if report2.HasPerfectMatch() {
		t.Error("busy-only lab should not be a perfect match")
	}
}

func TestReportStringEmpty(t *testing.T) {
	report := NewLabReport(singleSlotJob())
	if !strings.Contains(report.String(), "No lab has any device") {
		t.Error("unexpected empty-report text:", report.String())
	}
}

func TestReportStringPerfectLab(t *testing.T) {
	job := singleSlotJob()
	report := NewLabReport(job)
	report.AddLab(assessLab(job, labWith("lab1.example.com", namedPerfect("serial-p"))))

	out := report.String()
	for _, want := range []string{
		"Given the following device requirements:",
		"should be able to allocate",
		"Hostname: lab1.example.com",
		"can be fulfilled with the following devices:",
		"serial-p",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReportStringNoPerfectLab(t *testing.T) {
	job := singleSlotJob()
	busy := namedPerfect("serial-b")
	busy.Status = fleet.StatusBusy

	report := NewLabReport(job)
	report.AddLab(assessLab(job, labWith("lab2", busy)))

	out := report.String()
	for _, want := range []string{
		"No lab host was able to satisfy all requirements",
		"Hostname: lab2",
		"Requirement 1",
		msgNotIdle,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
