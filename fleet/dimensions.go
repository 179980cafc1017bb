package fleet

import (
	"regexp"
	"strings"
)

// Dimension value sentinels understood by dimension matching and by the
// query filter builder.
const (
	// ValueAll is the dimension value a device uses to declare it supports
	// any requested value.
	ValueAll = "*"

	// ValueExclude is the dimension value a job uses to request devices
	// which do NOT expose the dimension.
	ValueExclude = "exclude"

	// PrefixRegex marks a job dimension value as a regular expression.
	PrefixRegex = "regex:"
)

// Well-known dimension names.
const (
	DimensionID          = "id"
	DimensionLabel       = "label"
	DimensionHostName    = "host_name"
	DimensionHostIP      = "host_ip"
	DimensionPoolName    = "pool_name"
	DimensionSIMCardInfo = "sim_card_info"
)

// Well-known dimension values.
const (
	// ValueNoSIM is the sim_card_info value for devices without a SIM card.
	ValueNoSIM = "NO_SIM"

	// DefaultPoolName is the pool_name value for devices in the default pool.
	DefaultPoolName = "DEFAULT"
)

// Device owner sentinels.
const (
	// PublicOwner marks a device as usable by any job owner.
	PublicOwner = "public"

	// DefaultDeviceOwner is the owner set on devices which have not been
	// claimed by anyone. Such devices are potentially accessible: the lab
	// admin can hand them to a user on request.
	DefaultDeviceOwner = "fleet-device-default-owner"
)

// Dimensions maps a dimension name to the values a device supports for it.
type Dimensions map[string][]string

// Values returns the values the device holds for the given dimension name.
func (d Dimensions) Values(name string) []string {
	return d[name]
}

// Has reports whether the dimension name is present with at least one value.
func (d Dimensions) Has(name string) bool {
	return len(d[name]) > 0
}

// Add appends a value to the named dimension.
func (d Dimensions) Add(name, value string) {
	d[name] = append(d[name], value)
}

// MatchValue reports whether a job-requested dimension value is satisfied by
// any of the given device values.
//
// The requested value may be the exclude sentinel (satisfied only when the
// device has no value for the dimension), the match-all sentinel (satisfied
// by any non-empty value set), a "regex:" prefixed expression, or a literal.
// A device-side "*" value satisfies any requested value other than exclude.
func MatchValue(requested string, deviceValues []string) bool {
	if requested == ValueExclude {
		return len(deviceValues) == 0
	}
	if len(deviceValues) == 0 {
		return false
	}
	if requested == ValueAll {
		return true
	}

	if expr, ok := strings.CutPrefix(requested, PrefixRegex); ok {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			// A bad regex can't match anything. Mismatch, not a crash.
			return false
		}
		for _, v := range deviceValues {
			if v == ValueAll || re.MatchString(v) {
				return true
			}
		}
		return false
	}

	for _, v := range deviceValues {
		if v == ValueAll || v == requested {
			return true
		}
	}
	return false
}

// UnsupportedDimensions returns the subset of requested dimensions which the
// device dimensions do not satisfy.
func UnsupportedDimensions(requested map[string]string, device Dimensions) map[string]string {
	var out map[string]string
	for name, value := range requested {
		if !MatchValue(value, device.Values(name)) {
			if out == nil {
				out = map[string]string{}
			}
			out[name] = value
		}
	}
	if out == nil {
		return map[string]string{}
	}
	return out
}

// UnsatisfiedDimensions returns the device-required dimensions which the
// job's requested dimensions do not satisfy. A required dimension is
// satisfied when the job requests a value the device's required value set
// contains.
func UnsatisfiedDimensions(required Dimensions, requested map[string]string) Dimensions {
	out := Dimensions{}
	for name, values := range required {
		jobValue, ok := requested[name]
		if ok && MatchValue(jobValue, values) {
			continue
		}
		out[name] = append([]string{}, values...)
	}
	return out
}
