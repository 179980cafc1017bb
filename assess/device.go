// Package assess scores how well devices and whole lab pools satisfy a
// job's device requirements. Scores feed human-readable allocation
// diagnostics; they never drive the actual assignment (see package match).
package assess

import (
	"sort"

	"github.com/labfleet/labfleet/fleet"
)

// Weights of the scoring criteria.
//
// Rules for the weight values:
//  1. To promote devices when they support a certain requirement, increase
//     the weight. But if it is not supported, the ranking will be extremely
//     low.
//  2. To promote devices when they don't support a certain requirement,
//     decrease the weight. But even when it is supported, it won't
//     significantly increase the ranking either.
const (
	WeightAccess             = 3
	WeightDeviceType         = 2
	WeightDriver             = 2
	WeightDecorator          = 5
	WeightSupportedDimension = 5
	WeightSatisfiedDimension = 4
	WeightStatus             = 1

	// MaxScore means every requirement is supported.
	MaxScore = WeightAccess +
		WeightDeviceType +
		WeightDriver +
		WeightDecorator +
		WeightSupportedDimension +
		WeightSatisfiedDimension +
		WeightStatus

	MinScore = 0

	// Extra score for devices which still have the default owner: the lab
	// admin could hand them to the job user on request.
	supplementPotentialAccess = WeightAccess - 1

	// One mismatched dimension drops the score by 2, so devices missing a
	// single dimension rank below busy or default-owned devices.
	deductionSingleDimension = 2

	// When the job requires "label", rank the devices without it lower to
	// promote the labeled ones.
	deductionLabelDimension = 3

	// When the job pins "id", "host_name" or "host_ip", rank everything
	// else much lower.
	deductionStrongDimension = 4
)

// DeviceAssessment is an assessment of a device, or a group of devices,
// about their support of one requirement slot of a job.
//
// Devices are accumulated with AddDevice: for a group, each criterion
// reports whether any device in the group satisfies it.
type DeviceAssessment struct {
	user       string
	driver     string
	deviceType string
	requested  map[string]string

	accessible          bool
	potentialAccessible bool
	driverSupported     bool
	typeSupported       bool
	idle                bool
	missing             bool

	unsupportedDecorators map[string]bool
	unsupportedDimensions map[string]string
	// nil until the first device is added; intersected across devices.
	unsatisfiedDimensions fleet.Dimensions
}

func newDeviceAssessment(job *fleet.Job, req *fleet.Requirement) *DeviceAssessment {
	decorators := make(map[string]bool, len(req.Decorators))
	for _, dec := range req.Decorators {
		decorators[dec] = true
	}
	requested := make(map[string]string, len(req.Dimensions))
	unsupported := make(map[string]string, len(req.Dimensions))
	for name, value := range req.Dimensions {
		requested[name] = value
		unsupported[name] = value
	}
	return &DeviceAssessment{
		user:                  job.User,
		driver:                job.Driver,
		deviceType:            req.Type,
		requested:             requested,
		missing:               true,
		unsupportedDecorators: decorators,
		unsupportedDimensions: unsupported,
	}
}

// AddDevice adds a device into the assessment.
func (a *DeviceAssessment) AddDevice(d *fleet.Device) *DeviceAssessment {
	// A device can only be potentially accessible when none is accessible.
	if d.Accessible(a.user) {
		a.accessible = true
		a.potentialAccessible = false
	} else if !a.accessible && d.DefaultOwned() {
		a.potentialAccessible = true
	}

	a.driverSupported = a.driverSupported || a.driver == "" || d.HasDriver(a.driver)
	a.typeSupported = a.typeSupported || a.deviceType == "" || d.HasType(a.deviceType)

	if len(a.unsupportedDecorators) > 0 {
		for dec := range a.unsupportedDecorators {
			if d.HasDecorator(dec) {
				delete(a.unsupportedDecorators, dec)
			}
		}
	}
	if len(a.unsupportedDimensions) > 0 {
		a.unsupportedDimensions = fleet.UnsupportedDimensions(a.unsupportedDimensions, d.Dimensions)
	}

	a.idle = a.idle || d.Status == fleet.StatusIdle
	a.missing = a.missing && d.Status == fleet.StatusMissing

	// Device-required dimensions: a criterion fails only if it fails for
	// every device, so intersect across devices.
	newUnsatisfied := fleet.UnsatisfiedDimensions(d.RequiredDimensions, a.requested)
	if a.unsatisfiedDimensions == nil {
		a.unsatisfiedDimensions = newUnsatisfied
	} else if len(a.unsatisfiedDimensions) > 0 {
		intersection := fleet.Dimensions{}
		for name := range a.unsatisfiedDimensions {
			if values, ok := newUnsatisfied[name]; ok {
				intersection[name] = values
			}
		}
		a.unsatisfiedDimensions = intersection
	}
	return a
}

// Accessible reports whether any device is accessible to the job user.
func (a *DeviceAssessment) Accessible() bool { return a.accessible }

// PotentialAccessible reports whether any device could become accessible by
// changing its owner from the default value to the job user.
func (a *DeviceAssessment) PotentialAccessible() bool { return a.potentialAccessible }

// DriverSupported reports whether any device supports the job driver.
func (a *DeviceAssessment) DriverSupported() bool { return a.driverSupported }

// TypeSupported reports whether any device supports the required type.
func (a *DeviceAssessment) TypeSupported() bool { return a.typeSupported }

// DecoratorsSupported reports whether every required decorator is supported
// by some device.
func (a *DeviceAssessment) DecoratorsSupported() bool {
	return len(a.unsupportedDecorators) == 0
}

// UnsupportedDecorators returns the required decorators no device supports.
func (a *DeviceAssessment) UnsupportedDecorators() []string {
	out := make([]string, 0, len(a.unsupportedDecorators))
	for dec := range a.unsupportedDecorators {
		out = append(out, dec)
	}
	sort.Strings(out)
	return out
}

// DimensionsSupported reports whether every requested dimension is supported
// by some device.
func (a *DeviceAssessment) DimensionsSupported() bool {
	return len(a.unsupportedDimensions) == 0
}

// UnsupportedDimensions returns the requested dimensions no device supports.
func (a *DeviceAssessment) UnsupportedDimensions() map[string]string {
	return a.unsupportedDimensions
}

// DimensionsSatisfied reports whether the job satisfies every
// device-required dimension of at least one device.
func (a *DeviceAssessment) DimensionsSatisfied() bool {
	return len(a.unsatisfiedDimensions) == 0
}

// UnsatisfiedDimensions returns the device-required dimensions the job does
// not request.
func (a *DeviceAssessment) UnsatisfiedDimensions() fleet.Dimensions {
	if a.unsatisfiedDimensions == nil {
		return fleet.Dimensions{}
	}
	return a.unsatisfiedDimensions
}

// Idle reports whether any device is idle.
func (a *DeviceAssessment) Idle() bool { return a.idle }

// Missing reports whether all devices are missing.
func (a *DeviceAssessment) Missing() bool { return a.missing }

// RequirementMatchedButBusy reports whether all requirements are matched
// but no device is idle.
func (a *DeviceAssessment) RequirementMatchedButBusy() bool {
	return a.Score() == MaxScore-(WeightStatus-MinScore) && !a.idle
}

// Score calculates the overall support of the assessed devices for the
// requirement. Bigger scores rank devices higher in candidate suggestions.
//
// A score of MaxScore means every requirement is supported. When no
// requirement is supported the score can still be above MinScore.
// Satisfying more criteria never lowers the score.
func (a *DeviceAssessment) Score() int {
	return a.accessScore() +
		boolScore(a.driverSupported, WeightDriver) +
		boolScore(a.typeSupported, WeightDeviceType) +
		maxInt(MinScore, WeightDecorator-len(a.unsupportedDecorators)) +
		a.supportedDimensionScore() +
		a.satisfiedDimensionScore() +
		boolScore(a.idle, WeightStatus)
}

// HasMaxScore reports whether every criterion is fully satisfied.
func (a *DeviceAssessment) HasMaxScore() bool {
	return a.Score() == MaxScore
}

func (a *DeviceAssessment) accessScore() int {
	switch {
	case a.accessible:
		return WeightAccess
	case a.potentialAccessible:
		return MinScore + supplementPotentialAccess
	default:
		return MinScore
	}
}

func (a *DeviceAssessment) supportedDimensionScore() int {
	score := WeightSupportedDimension - len(a.unsupportedDimensions)*deductionSingleDimension
	if _, ok := a.unsupportedDimensions[fleet.DimensionLabel]; ok {
		score = score - deductionLabelDimension + deductionSingleDimension
	}
	if hasAnyKey(a.unsupportedDimensions,
		fleet.DimensionID, fleet.DimensionHostName, fleet.DimensionHostIP) {
		score = score - deductionStrongDimension + deductionSingleDimension
	}
	return maxInt(MinScore, score)
}

func (a *DeviceAssessment) satisfiedDimensionScore() int {
	return maxInt(MinScore, WeightSatisfiedDimension-len(a.unsatisfiedDimensions))
}

// Assessor provides detail assessments of the support of devices for a job.
type Assessor struct{}

// Assess scores one device against one requirement slot.
func (Assessor) Assess(job *fleet.Job, req *fleet.Requirement, d *fleet.Device) *DeviceAssessment {
	return newDeviceAssessment(job, req).AddDevice(d)
}

// AssessPool scores a whole device group against one requirement slot,
// answering whether each criterion is satisfiable by some device in the
// group, independent of the other slots.
func (Assessor) AssessPool(job *fleet.Job, req *fleet.Requirement, devices []*fleet.Device) *DeviceAssessment {
	a := newDeviceAssessment(job, req)
	for _, d := range devices {
		a.AddDevice(d)
	}
	return a
}

func boolScore(ok bool, weight int) int {
	if ok {
		return weight
	}
	return MinScore
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func hasAnyKey(m map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
