package assess

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/labfleet/labfleet/fleet"
)

const (
	// MaxLabs bounds how many lab assessments a report retains; only the
	// highest scoring labs are kept.
	MaxLabs = 15
	// MaxCandidatesPerSlot bounds how many device candidates are listed
	// per requirement in the readable report.
	MaxCandidatesPerSlot = 5

	indent        = "    "
	lineSeparator = "==========================================="
)

// Diagnosis messages explaining why a device missed a requirement.
const (
	msgNoAccess              = "user has no access to the device"
	msgDriverNotSupported    = "driver is not supported"
	msgTypeNotSupported      = "device type is not supported"
	msgDecoratorsNotSupported = "decorators are not supported"
	msgDimensionsNotSupported = "dimensions are not supported"
	msgDimensionsNotSatisfied = "device-required dimensions are not satisfied by the job"
	msgMissing               = "device has gone missing"
	msgNotIdle               = "device is busy"
)

// LabReport collects lab assessments for a job and renders a readable
// diagnosis of why allocation failed, or whether it should have succeeded.
type LabReport struct {
	job  *fleet.Job
	labs labHeap

	// maxLabs and maxCandidates default to MaxLabs and
	// MaxCandidatesPerSlot.
	maxLabs       int
	maxCandidates int
}

// NewLabReport returns an empty report for the given job.
func NewLabReport(job *fleet.Job) *LabReport {
	return &LabReport{
		job:           job,
		maxLabs:       MaxLabs,
		maxCandidates: MaxCandidatesPerSlot,
	}
}

// WithLimits overrides how many labs the report retains and how many
// candidates it lists per requirement. Non-positive values keep the
// defaults.
func (r *LabReport) WithLimits(maxLabs, maxCandidates int) *LabReport {
	if maxLabs > 0 {
		r.maxLabs = maxLabs
	}
	if maxCandidates > 0 {
		r.maxCandidates = maxCandidates
	}
	return r
}

// AddLab adds a lab assessment to the report. If the report is full the
// lowest scoring assessment is evicted.
func (r *LabReport) AddLab(lab *LabAssessment) *LabReport {
	heap.Push(&r.labs, lab)
	if r.labs.Len() > r.maxLabs {
		heap.Pop(&r.labs)
	}
	return r
}

// HasPerfectMatch reports whether any retained lab reached the maximum
// possible score for the job.
func (r *LabReport) HasPerfectMatch() bool {
	for _, lab := range r.labs {
		if lab.HasMaxScore() {
			return true
		}
	}
	return false
}

// Sorted returns the retained lab assessments by non-increasing score.
func (r *LabReport) Sorted() []*LabAssessment {
	labs := make([]*LabAssessment, len(r.labs))
	copy(labs, r.labs)
	sort.SliceStable(labs, func(i, j int) bool {
		return labs[i].Score() > labs[j].Score()
	})
	return labs
}

// String renders the readable diagnosis.
func (r *LabReport) String() string {
	if r.labs.Len() == 0 {
		return "No lab has any device supporting the requested device types.\n"
	}

	var b strings.Builder
	labs := r.Sorted()
	r.writeRequirements(&b)

	var perfect []*LabAssessment
	for _, lab := range labs {
		if lab.HasMaxScore() {
			perfect = append(perfect, lab)
		}
	}
	// If some lab scores perfectly the failure is unlikely to be the
	// job's fault; point at the labs and suggest a retry.
	if len(perfect) > 0 {
		b.WriteString("The job should be able to allocate devices on any of the " +
			"following lab hosts but allocation failed. Try again.\n\n")
		r.writeLabs(&b, perfect)
		return b.String()
	}

	fmt.Fprintf(&b, "No lab host was able to satisfy all requirements. "+
		"These are the top %d closest matches.\n\n", len(labs))
	r.writeLabs(&b, labs)
	return b.String()
}

func (r *LabReport) writeRequirements(b *strings.Builder) {
	b.WriteString("Given the following device requirements:\n\n")
	for i, req := range r.job.Requirements {
		y, err := yaml.Marshal(req)
		if err != nil {
			y = []byte(fmt.Sprintf("%v\n", req))
		}
		fmt.Fprintf(b, "Requirement %d:\n%s\n", i+1, y)
	}
}

func (r *LabReport) writeLabs(b *strings.Builder, labs []*LabAssessment) {
	for _, lab := range labs {
		fmt.Fprintf(b, "%s Score %d %s\n\nHostname: %s\n\n",
			lineSeparator, lab.Score(), lineSeparator, lab.Hostname())
		for i := range r.job.Requirements {
			r.writeSlot(b, lab, i)
		}
	}
}

func (r *LabReport) writeSlot(b *strings.Builder, lab *LabAssessment, slot int) {
	overall := lab.Overall(slot)
	if !overall.HasMaxScore() {
		fmt.Fprintf(b, "Requirement %d: No device can satisfy the following requirements:\n", slot+1)
		r.writeDeviceErrors(b, overall, indent)
		b.WriteString("\n")
		return
	}

	candidates := lab.TopCandidates(slot, r.maxCandidates)
	if len(candidates) > 0 && candidates[0].Assessment.HasMaxScore() {
		fmt.Fprintf(b, "Requirement %d can be fulfilled with the following devices:\n", slot+1)
		var imperfect []*Candidate
		for _, c := range candidates {
			if c.Assessment.HasMaxScore() {
				fmt.Fprintf(b, "%s- %s\n", indent, c.Serial)
			} else {
				imperfect = append(imperfect, c)
			}
		}
		if len(imperfect) > 0 {
			fmt.Fprintf(b, "Other candidates for requirement %d:\n", slot+1)
			for _, c := range imperfect {
				fmt.Fprintf(b, "%s- %s\n", indent, c.Serial)
				r.writeDeviceErrors(b, c.Assessment, indent+indent)
			}
		}
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "Requirement %d top candidates:\n", slot+1)
	for _, c := range candidates {
		fmt.Fprintf(b, "%s- %s\n", indent, c.Serial)
		r.writeDeviceErrors(b, c.Assessment, indent+indent)
	}
	b.WriteString("\n")
}

func (r *LabReport) writeDeviceErrors(b *strings.Builder, a *DeviceAssessment, ind string) {
	if !a.Accessible() {
		fmt.Fprintf(b, "%s- %s (current user: %s)\n", ind, msgNoAccess, r.job.User)
	}
	if !a.DriverSupported() {
		fmt.Fprintf(b, "%s- %s\n", ind, msgDriverNotSupported)
	}
	if !a.TypeSupported() {
		fmt.Fprintf(b, "%s- %s\n", ind, msgTypeNotSupported)
	}
	if !a.DecoratorsSupported() {
		fmt.Fprintf(b, "%s- %s: %v\n", ind, msgDecoratorsNotSupported, a.UnsupportedDecorators())
	}
	if !a.DimensionsSupported() {
		fmt.Fprintf(b, "%s- %s: %s\n", ind, msgDimensionsNotSupported, formatMap(a.UnsupportedDimensions()))
	}
	if !a.DimensionsSatisfied() {
		fmt.Fprintf(b, "%s- %s: %s\n", ind, msgDimensionsNotSatisfied, formatDims(a.UnsatisfiedDimensions()))
	}
	if a.Missing() {
		fmt.Fprintf(b, "%s- %s\n", ind, msgMissing)
	} else if !a.Idle() {
		fmt.Fprintf(b, "%s- %s\n", ind, msgNotIdle)
	}
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatDims(d fleet.Dimensions) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, strings.Join(d[k], "|")))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// labHeap is a min-heap on lab score so the lowest scoring lab is cheap
// to evict when the report is full.
type labHeap []*LabAssessment

func (h labHeap) Len() int            { return len(h) }
func (h labHeap) Less(i, j int) bool  { return h[i].Score() < h[j].Score() }
func (h labHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *labHeap) Push(x interface{}) { *h = append(*h, x.(*LabAssessment)) }
func (h *labHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
