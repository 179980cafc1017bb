package fleet

// Requirement is one ordered slot of a job's device requirement list.
// Index order is significant: downstream drivers assume the device matched
// to slot i carries slot i's dimensions.
type Requirement struct {
	// Type is the required device type, e.g. "AndroidRealDevice".
	Type string

	// Dimensions maps a dimension name to the requested value. Values may
	// use the ValueAll, ValueExclude and PrefixRegex sentinels.
	Dimensions map[string]string

	// Decorators the matched device must support, in wrapping order.
	Decorators []string
}

// Job describes one allocation request: who is asking, which driver will
// run, and the ordered device requirements.
type Job struct {
	ID     string
	User   string
	Driver string

	// Requirements is the ordered list of device slots. A single-device
	// job has exactly one entry.
	Requirements []*Requirement
}

// RequestsDimension reports whether any requirement of the job requests the
// given dimension name.
func (j *Job) RequestsDimension(name string) bool {
	for _, r := range j.Requirements {
		if _, ok := r.Dimensions[name]; ok {
			return true
		}
	}
	return false
}

// RequestsNonDefaultDimension reports whether any requirement requests the
// given dimension with a value other than the given default.
func (j *Job) RequestsNonDefaultDimension(name, defaultValue string) bool {
	for _, r := range j.Requirements {
		if v, ok := r.Dimensions[name]; ok && v != defaultValue {
			return true
		}
	}
	return false
}
