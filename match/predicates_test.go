package match

import (
	"testing"

	"github.com/labfleet/labfleet/fleet"
)

func device(serial string, types ...string) *fleet.Device {
	return &fleet.Device{
		Serial:     serial,
		Status:     fleet.StatusIdle,
		Types:      types,
		Dimensions: fleet.Dimensions{},
	}
}

func TestTypeFit(t *testing.T) {
	d := device("d1", "AndroidRealDevice")
	if err := TypeFit(d, &fleet.Requirement{Type: "AndroidRealDevice"}); err != nil {
		t.Error("expected type to fit", err)
	}
	if err := TypeFit(d, &fleet.Requirement{Type: "IosRealDevice"}); err == nil {
		t.Error("expected type NOT to fit")
	}
	// No required type fits anything.
	if err := TypeFit(d, &fleet.Requirement{}); err != nil {
		t.Error("expected empty type to fit", err)
	}
}

func TestDimensionsFit(t *testing.T) {
	d := device("d1", "AndroidRealDevice")
	d.Dimensions = fleet.Dimensions{"model": {"pixel8"}}

	r := &fleet.Requirement{Dimensions: map[string]string{"model": "pixel8"}}
	if err := DimensionsFit(d, r); err != nil {
		t.Error("expected dimensions to fit", err)
	}

	r = &fleet.Requirement{Dimensions: map[string]string{"model": "pixel9"}}
	if err := DimensionsFit(d, r); err == nil {
		t.Error("expected dimensions NOT to fit")
	}

	// Exclude sentinel: the device must not expose the dimension.
	r = &fleet.Requirement{Dimensions: map[string]string{"battery": fleet.ValueExclude}}
	if err := DimensionsFit(d, r); err != nil {
		t.Error("expected exclude dimension to fit", err)
	}
}

func TestDeviceRequiredDimensionsFit(t *testing.T) {
	d := device("d1", "AndroidRealDevice")
	d.RequiredDimensions = fleet.Dimensions{"quota": {"monthly"}}

	if err := DimensionsFit(d, &fleet.Requirement{}); err == nil {
		t.Error("expected device-required dimension NOT to be satisfied")
	}
	r := &fleet.Requirement{Dimensions: map[string]string{"quota": "monthly"}}
	if err := DimensionsFit(d, r); err != nil {
		t.Error("expected device-required dimension to be satisfied", err)
	}
}

func TestDecoratorsFit(t *testing.T) {
	d := device("d1", "AndroidRealDevice")
	d.Decorators = []string{"ScreenRecord", "Logcat"}

	r := &fleet.Requirement{Decorators: []string{"Logcat"}}
	if err := DecoratorsFit(d, r); err != nil {
		t.Error("expected decorators to fit", err)
	}
	r = &fleet.Requirement{Decorators: []string{"Logcat", "AccountManager"}}
	if err := DecoratorsFit(d, r); err == nil {
		t.Error("expected decorators NOT to fit")
	}
}

func TestSupports(t *testing.T) {
	d := device("d1", "AndroidRealDevice")
	d.Dimensions = fleet.Dimensions{"model": {"pixel8"}}
	d.Decorators = []string{"Logcat"}

	r := &fleet.Requirement{
		Type:       "AndroidRealDevice",
		Dimensions: map[string]string{"model": "regex:pixel[0-9]"},
		Decorators: []string{"Logcat"},
	}
	if !Supports(d, r) {
		t.Error("expected device to support requirement")
	}

	r.Dimensions["model"] = "pixel9"
	if Supports(d, r) {
		t.Error("expected device NOT to support requirement")
	}
}
