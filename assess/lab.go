package assess

import (
	"sort"

	"github.com/labfleet/labfleet/fleet"
)

// Candidate pairs a device serial with its assessment for one slot.
type Candidate struct {
	Serial     string
	Assessment *DeviceAssessment
}

// deviceAssessor lets tests swap in an instrumented assessor.
type deviceAssessor interface {
	Assess(job *fleet.Job, req *fleet.Requirement, d *fleet.Device) *DeviceAssessment
	AssessPool(job *fleet.Job, req *fleet.Requirement, devices []*fleet.Device) *DeviceAssessment
}

// LabAssessment assesses one lab host's ability to satisfy a job's device
// requirements: per-slot ranked candidate lists, per-slot overall
// assessments, and a joint feasibility score.
type LabAssessment struct {
	job      *fleet.Job
	assessor deviceAssessor
	hostname string

	// indexed by requirement slot
	overall    []*DeviceAssessment
	candidates [][]*Candidate

	score *int
}

// NewLabAssessment returns an empty assessment for the given job.
func NewLabAssessment(job *fleet.Job) *LabAssessment {
	return newLabAssessment(job, Assessor{})
}

func newLabAssessment(job *fleet.Job, assessor deviceAssessor) *LabAssessment {
	return &LabAssessment{
		job:        job,
		assessor:   assessor,
		overall:    make([]*DeviceAssessment, len(job.Requirements)),
		candidates: make([][]*Candidate, len(job.Requirements)),
	}
}

// AddLab adds a lab and its devices to this assessment for scoring
// consideration. Devices are only ever allocated from a single lab at a
// time, so this should only be called once per assessment.
func (l *LabAssessment) AddLab(lab *fleet.Lab) *LabAssessment {
	l.hostname = lab.Hostname
	for i, req := range l.job.Requirements {
		l.overall[i] = l.assessor.AssessPool(l.job, req, lab.Devices)
		for _, d := range lab.Devices {
			if !l.possibleCandidate(d) {
				continue
			}
			l.candidates[i] = append(l.candidates[i], &Candidate{
				Serial:     d.Serial,
				Assessment: l.assessor.Assess(l.job, req, d),
			})
		}
		// Descending by score; ties keep encounter order.
		sort.SliceStable(l.candidates[i], func(a, b int) bool {
			return l.candidates[i][a].Assessment.Score() > l.candidates[i][b].Assessment.Score()
		})
	}
	return l
}

// possibleCandidate excludes devices which could score well on paper but
// are operationally unavailable to the job owner; listing them as near
// matches would mislead the diagnosis.
func (l *LabAssessment) possibleCandidate(d *fleet.Device) bool {
	// Devices with a SIM card are reserved for jobs that ask for one.
	deviceHasSIM := false
	for _, v := range d.Dimensions.Values(fleet.DimensionSIMCardInfo) {
		if v != fleet.ValueNoSIM {
			deviceHasSIM = true
			break
		}
	}
	if deviceHasSIM && !l.job.RequestsDimension(fleet.DimensionSIMCardInfo) {
		return false
	}

	// Devices in a non-default pool belong to jobs requesting that pool.
	deviceNonDefaultPool := false
	for _, v := range d.Dimensions.Values(fleet.DimensionPoolName) {
		if v != fleet.DefaultPoolName {
			deviceNonDefaultPool = true
			break
		}
	}
	if deviceNonDefaultPool &&
		!l.job.RequestsNonDefaultDimension(fleet.DimensionPoolName, fleet.DefaultPoolName) {
		return false
	}
	return true
}

// Score computes the best achievable total score across all requirement
// slots jointly, excluding devices already committed to earlier slots.
//
// The search is bounded: only the top 2 ranked candidates per slot are
// tried, so it can under-report the true best total when the optimum needs
// a lower-ranked candidate. The value is cached; calling Score repeatedly
// is cheap.
func (l *LabAssessment) Score() int {
	if l.score == nil {
		used := make(map[string]bool, len(l.job.Requirements))
		s := l.computeScore(0, used, nil)
		l.score = &s
	}
	return *l.score
}

func (l *LabAssessment) computeScore(slot int, used map[string]bool, picked []*Candidate) int {
	if len(picked) == len(l.job.Requirements) {
		sum := 0
		for _, c := range picked {
			sum += c.Assessment.Score()
		}
		return sum
	}

	candidates := l.candidates[slot]
	best := 0
	// Try at most 2 candidates per slot to bound the running time.
	depth := len(candidates)
	if depth > 2 {
		depth = 2
	}
	for i := 0; i < depth; i++ {
		c := candidates[i]
		if used[c.Serial] {
			continue
		}
		used[c.Serial] = true
		if s := l.computeScore(slot+1, used, append(picked, c)); s > best {
			best = s
		}
		delete(used, c.Serial)
	}
	return best
}

// HasMaxScore reports whether this assessment has the maximum possible
// score, i.e. every slot can independently be fully satisfied. Because of
// the bounded search and because exclusivity is only checked within
// explored branches, this does not guarantee a feasible assignment exists.
func (l *LabAssessment) HasMaxScore() bool {
	return l.Score() == MaxScore*len(l.job.Requirements)
}

// Hostname returns the hostname of the lab under consideration.
func (l *LabAssessment) Hostname() string {
	return l.hostname
}

// Overall returns the whole-pool assessment for the given slot. It answers
// whether any single requirement of the slot is impossible at this lab at
// all, as opposed to whether all slots can be satisfied simultaneously.
func (l *LabAssessment) Overall(slot int) *DeviceAssessment {
	return l.overall[slot]
}

// TopCandidates returns up to limit candidates for the given slot, sorted
// by non-increasing score.
func (l *LabAssessment) TopCandidates(slot, limit int) []*Candidate {
	candidates := l.candidates[slot]
	if len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}
