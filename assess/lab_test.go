package assess

import (
	"testing"

	"github.com/labfleet/labfleet/fleet"
)

// countingAssessor counts assessor calls so tests can verify caching.
type countingAssessor struct {
	inner Assessor
	calls int
}

func (c *countingAssessor) Assess(job *fleet.Job, req *fleet.Requirement, d *fleet.Device) *DeviceAssessment {
	c.calls++
	return c.inner.Assess(job, req, d)
}

func (c *countingAssessor) AssessPool(job *fleet.Job, req *fleet.Requirement, devices []*fleet.Device) *DeviceAssessment {
	c.calls++
	return c.inner.AssessPool(job, req, devices)
}

func twoSlotJob() *fleet.Job {
	req := &fleet.Requirement{
		Type:       "AndroidRealDevice",
		Dimensions: map[string]string{"sdk_version": "33"},
		Decorators: []string{"ScreenRecorderDecorator"},
	}
	second := *req
	return &fleet.Job{
		ID:           "job-2",
		User:         "alice",
		Driver:       "AndroidInstrumentation",
		Requirements: []*fleet.Requirement{req, &second},
	}
}

func namedPerfect(serial string) *fleet.Device {
	d := perfectDevice()
	d.Serial = serial
	return d
}

func TestLabScoreTwoPerfectDevices(t *testing.T) {
	job := twoSlotJob()
	lab := &fleet.Lab{
		Hostname: "lab1.example.com",
		Devices:  []*fleet.Device{namedPerfect("s1"), namedPerfect("s2")},
	}

	a := NewLabAssessment(job).AddLab(lab)
	if a.Score() != MaxScore*2 {
		t.Errorf("expected %d, got %d", MaxScore*2, a.Score())
	}
	if !a.HasMaxScore() {
		t.Error("expected HasMaxScore")
	}
	if a.Hostname() != "lab1.example.com" {
		t.Error("unexpected hostname", a.Hostname())
	}
}

func TestLabScoreSerialExclusive(t *testing.T) {
	// One perfect device cannot fill both slots; the second slot has to
	// settle for the busy one.
	job := twoSlotJob()
	busy := namedPerfect("busy")
	busy.Status = fleet.StatusBusy
	lab := &fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{namedPerfect("idle"), busy},
	}

	a := NewLabAssessment(job).AddLab(lab)
	want := MaxScore + (MaxScore - WeightStatus)
	if a.Score() != want {
		t.Errorf("expected %d, got %d", want, a.Score())
	}
	if a.HasMaxScore() {
		t.Error("one perfect device should not max a two-slot job")
	}
}

func TestLabScoreCached(t *testing.T) {
	job := twoSlotJob()
	counting := &countingAssessor{}
	a := newLabAssessment(job, counting)
	a.AddLab(&fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{namedPerfect("s1"), namedPerfect("s2")},
	})

	callsAfterAdd := counting.calls
	first := a.Score()
	second := a.Score()
	if first != second {
		t.Errorf("score changed between calls: %d then %d", first, second)
	}
	if counting.calls != callsAfterAdd {
		t.Errorf("scoring should not re-run the assessor: %d calls before, %d after",
			callsAfterAdd, counting.calls)
	}

	// The cached value survives later candidate mutation.
	a.candidates[0] = nil
	if a.Score() != first {
		t.Error("score should be cached after the first computation")
	}
}

func TestOverallAssessmentPerSlot(t *testing.T) {
	// The overall assessment answers whether each criterion is satisfiable
	// by some device, independent of the other slots.
	job := twoSlotJob()
	typed := &fleet.Device{
		Serial: "typed",
		Status: fleet.StatusBusy,
		Types:  []string{"AndroidRealDevice"},
	}
	capable := &fleet.Device{
		Serial:     "capable",
		Status:     fleet.StatusIdle,
		Drivers:    []string{"AndroidInstrumentation"},
		Decorators: []string{"ScreenRecorderDecorator"},
		Dimensions: fleet.Dimensions{"sdk_version": {"33"}},
	}

	a := NewLabAssessment(job).AddLab(&fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{typed, capable},
	})
	overall := a.Overall(0)
	if !overall.HasMaxScore() {
		t.Errorf("overall assessment should reach max score jointly, got %d", overall.Score())
	}
}

func TestCandidatesSortedDescending(t *testing.T) {
	job := twoSlotJob()
	busy := namedPerfect("busy")
	busy.Status = fleet.StatusBusy
	foreign := namedPerfect("foreign")
	foreign.Owners = []string{"someone-else"}

	a := NewLabAssessment(job).AddLab(&fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{foreign, busy, namedPerfect("best")},
	})

	candidates := a.TopCandidates(0, 10)
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].Serial != "best" {
		t.Error("expected the perfect device first, got", candidates[0].Serial)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Assessment.Score() > candidates[i-1].Assessment.Score() {
			t.Error("candidates not sorted by non-increasing score")
		}
	}

	top := a.TopCandidates(0, 2)
	if len(top) != 2 {
		t.Errorf("expected the list truncated to 2, got %d", len(top))
	}
}

func TestSIMDeviceExcludedWhenNotRequested(t *testing.T) {
	job := twoSlotJob()
	sim := namedPerfect("sim")
	sim.Dimensions = fleet.Dimensions{
		"sdk_version":             {"33"},
		fleet.DimensionSIMCardInfo: {"carrier-x"},
	}

	a := NewLabAssessment(job).AddLab(&fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{sim, namedPerfect("plain")},
	})
	for _, c := range a.TopCandidates(0, 10) {
		if c.Serial == "sim" {
			t.Error("SIM device should be excluded when the job requests no SIM")
		}
	}

	// A NO_SIM marker does not count as having a SIM.
	noSim := namedPerfect("nosim")
	noSim.Dimensions = fleet.Dimensions{
		"sdk_version":             {"33"},
		fleet.DimensionSIMCardInfo: {fleet.ValueNoSIM},
	}
	b := NewLabAssessment(job).AddLab(&fleet.Lab{
		Hostname: "lab2",
		Devices:  []*fleet.Device{noSim},
	})
	if len(b.TopCandidates(0, 10)) != 1 {
		t.Error("NO_SIM device should remain a candidate")
	}
}

func TestNonDefaultPoolDeviceExcluded(t *testing.T) {
	job := twoSlotJob()
	pooled := namedPerfect("pooled")
	pooled.Dimensions = fleet.Dimensions{
		"sdk_version":          {"33"},
		fleet.DimensionPoolName: {"shared-pool"},
	}

	a := NewLabAssessment(job).AddLab(&fleet.Lab{
		Hostname: "lab1",
		Devices:  []*fleet.Device{pooled},
	})
	if len(a.TopCandidates(0, 10)) != 0 {
		t.Error("non-default pool device should be excluded when the job requests no pool")
	}

	// Jobs that request the pool keep the device.
	poolJob := twoSlotJob()
	for _, r := range poolJob.Requirements {
		r.Dimensions[fleet.DimensionPoolName] = "shared-pool"
	}
	pooled2 := namedPerfect("pooled2")
	pooled2.Dimensions = fleet.Dimensions{
		"sdk_version":          {"33"},
		fleet.DimensionPoolName: {"shared-pool"},
	}
	b := NewLabAssessment(poolJob).AddLab(&fleet.Lab{
		Hostname: "lab2",
		Devices:  []*fleet.Device{pooled2},
	})
	if len(b.TopCandidates(0, 10)) != 1 {
		t.Error("device should remain a candidate when its pool is requested")
	}
}
