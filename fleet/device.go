// Package fleet contains the device fleet data model: devices, labs,
// jobs and their ordered device requirements.
package fleet

// Status describes the scheduling state of a device.
type Status string

// Device statuses.
const (
	StatusIdle    Status = "IDLE"
	StatusBusy    Status = "BUSY"
	StatusInit    Status = "INIT"
	StatusDying   Status = "DYING"
	StatusMissing Status = "MISSING"
)

// Device is a read-only snapshot of one schedulable resource, as reported
// by the device registry. The matching and assessment code never mutates a
// Device and holds no reference to it past one call.
type Device struct {
	// Serial is the stable device identifier, unique within a lab.
	Serial string
	Host   string
	Status Status

	Types      []string
	Drivers    []string
	Decorators []string
	Owners     []string

	// Dimensions the device supports.
	Dimensions Dimensions
	// Dimensions the device requires jobs to declare, e.g. a monthly
	// data quota a job must acknowledge before using the device.
	RequiredDimensions Dimensions
}

// HasType reports whether the device supports the given device type.
func (d *Device) HasType(t string) bool {
	return contains(d.Types, t)
}

// HasDriver reports whether the device supports the given test driver.
func (d *Device) HasDriver(driver string) bool {
	return contains(d.Drivers, driver)
}

// HasDecorator reports whether the device supports the given decorator.
func (d *Device) HasDecorator(dec string) bool {
	return contains(d.Decorators, dec)
}

// UnsupportedDecorators returns the subset of the given decorators the
// device does not support.
func (d *Device) UnsupportedDecorators(decorators []string) []string {
	var out []string
	for _, dec := range decorators {
		if !d.HasDecorator(dec) {
			out = append(out, dec)
		}
	}
	return out
}

// Accessible reports whether the given user may run jobs on this device.
// Public devices are accessible to everyone.
func (d *Device) Accessible(user string) bool {
	if len(d.Owners) == 0 {
		return true
	}
	for _, o := range d.Owners {
		if o == user || o == PublicOwner {
			return true
		}
	}
	return false
}

// DefaultOwned reports whether the device is owned only by the default
// device owner, i.e. unclaimed and potentially accessible to anyone.
func (d *Device) DefaultOwned() bool {
	return len(d.Owners) == 1 && d.Owners[0] == DefaultDeviceOwner
}

// Lab is one host's pool of candidate devices at query time.
type Lab struct {
	Hostname string
	Devices  []*Device
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
