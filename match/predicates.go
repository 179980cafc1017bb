package match

import (
	"fmt"

	"github.com/labfleet/labfleet/fleet"
)

// Predicate is a function that checks whether a device fits one requirement.
type Predicate func(*fleet.Device, *fleet.Requirement) error

// TypeFit determines whether the device supports the required device type.
func TypeFit(d *fleet.Device, r *fleet.Requirement) error {
	if r.Type == "" {
		return nil
	}
	if !d.HasType(r.Type) {
		return fmt.Errorf("fail type, requested %s", r.Type)
	}
	return nil
}

// DimensionsFit determines whether the device satisfies every requested
// dimension, and whether every dimension the device itself requires is
// declared by the requirement.
func DimensionsFit(d *fleet.Device, r *fleet.Requirement) error {
	for name, value := range r.Dimensions {
		if !fleet.MatchValue(value, d.Dimensions.Values(name)) {
			return fmt.Errorf("fail dimension %s, requested %s", name, value)
		}
	}
	for name := range fleet.UnsatisfiedDimensions(d.RequiredDimensions, r.Dimensions) {
		return fmt.Errorf("fail device-required dimension %s", name)
	}
	return nil
}

// DecoratorsFit determines whether the device supports every required
// decorator.
func DecoratorsFit(d *fleet.Device, r *fleet.Requirement) error {
	if missing := d.UnsupportedDecorators(r.Decorators); len(missing) > 0 {
		return fmt.Errorf("fail decorators %v", missing)
	}
	return nil
}

// DefaultPredicates is the Predicate list used to decide whether a device
// can be bound to a requirement slot.
var DefaultPredicates = []Predicate{
	TypeFit,
	DimensionsFit,
	DecoratorsFit,
}

// MatchAll checks whether a device fits a requirement using the given
// Predicate list.
func MatchAll(d *fleet.Device, r *fleet.Requirement, predicates []Predicate) bool {
	for _, pred := range predicates {
		if err := pred(d, r); err != nil {
			return false
		}
	}
	return true
}

// Supports reports whether the device can be bound to the requirement.
// A mismatch is an ordinary false, never an error.
func Supports(d *fleet.Device, r *fleet.Requirement) bool {
	return MatchAll(d, r, DefaultPredicates)
}
