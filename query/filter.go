// Package query builds device-registry query filters from job requirements
// and provides an HTTP client for the registry's query API.
package query

import (
	"sort"
	"strings"

	"github.com/labfleet/labfleet/fleet"
)

// FilterType selects which aspects of a job's requirements are translated
// into the registry filter. Callers compose these to build permissive
// queries (diagnostics want anything remotely compatible) or strict ones
// (construction wants only idle, fully matching devices).
type FilterType string

const (
	FilterAccess    FilterType = "access"
	FilterDecorator FilterType = "decorator"
	FilterDimension FilterType = "dimension"
	FilterDriver    FilterType = "driver"
	FilterStatus    FilterType = "status"
)

// AllFilterTypes lists every selectable filter type.
var AllFilterTypes = []FilterType{
	FilterAccess, FilterDecorator, FilterDimension, FilterDriver, FilterStatus,
}

// DimensionFilter constrains one dimension to values matching a regex.
type DimensionFilter struct {
	Name       string `json:"name"`
	ValueRegex string `json:"valueRegex"`
}

// DeviceFilter is the query sent to the device registry. Zero-valued
// fields are unconstrained.
type DeviceFilter struct {
	// Owners lists identities allowed to access returned devices.
	Owners []string `json:"owners,omitempty"`
	// Decorators the devices must support.
	Decorators []string `json:"decorators,omitempty"`
	// Dimensions the devices must expose, as name/value-regex pairs.
	Dimensions []DimensionFilter `json:"dimensions,omitempty"`
	// Driver the devices must support.
	Driver string `json:"driver,omitempty"`
	// Statuses the devices must be in.
	Statuses []string `json:"statuses,omitempty"`
}

// TranslateValue converts a requested dimension value into the registry's
// value-regex form. ok is false when the value is the exclusion sentinel,
// in which case no filter should be emitted for the dimension.
func TranslateValue(v string) (regex string, ok bool) {
	switch {
	case v == fleet.ValueExclude:
		return "", false
	case v == fleet.ValueAll:
		return ".*", true
	case strings.HasPrefix(v, fleet.PrefixRegex):
		return strings.TrimPrefix(v, fleet.PrefixRegex), true
	default:
		return v, true
	}
}

// BuildFilter translates a job's requirements into a registry filter
// covering the given filter types.
func BuildFilter(job *fleet.Job, types ...FilterType) *DeviceFilter {
	f := &DeviceFilter{}
	for _, t := range types {
		switch t {
		case FilterAccess:
			// Public devices are always allocatable regardless of owner.
			f.Owners = appendUnique(f.Owners, fleet.PublicOwner)
			if job.User != "" {
				f.Owners = appendUnique(f.Owners, job.User)
			}
		case FilterDecorator:
			for _, req := range job.Requirements {
				for _, d := range req.Decorators {
					f.Decorators = appendUnique(f.Decorators, d)
				}
			}
		case FilterDimension:
			seen := map[DimensionFilter]bool{}
			for _, req := range job.Requirements {
				for name, value := range req.Dimensions {
					regex, ok := TranslateValue(value)
					if !ok {
						continue
					}
					df := DimensionFilter{Name: name, ValueRegex: regex}
					if !seen[df] {
						seen[df] = true
						f.Dimensions = append(f.Dimensions, df)
					}
				}
			}
			// Requirement dimensions are maps; sort for a stable filter.
			sort.Slice(f.Dimensions, func(i, j int) bool {
				if f.Dimensions[i].Name != f.Dimensions[j].Name {
					return f.Dimensions[i].Name < f.Dimensions[j].Name
				}
				return f.Dimensions[i].ValueRegex < f.Dimensions[j].ValueRegex
			})
		case FilterDriver:
			f.Driver = job.Driver
		case FilterStatus:
			f.Statuses = appendUnique(f.Statuses, string(fleet.StatusIdle))
		}
	}
	return f
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
