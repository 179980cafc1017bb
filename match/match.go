// Package match computes concrete device-to-requirement assignments.
//
// Given a job's ordered requirement list and one lab's device pool a
// Matcher either returns a feasible assignment, one device per requirement
// slot in slot order with no device used twice, or reports infeasibility
// by returning nil. Infeasibility is an expected, common outcome and is
// never an error.
package match

import (
	"context"
	"fmt"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
)

// Matcher finds a slot-ordered, serial-exclusive assignment of pool devices
// to a job's requirements.
//
// The returned slice is either nil (no feasible assignment) or has exactly
// len(job.Requirements) entries, where entry i satisfies requirement i.
// The error return is reserved for context cancellation; it is never used
// for infeasibility.
type Matcher interface {
	Match(ctx context.Context, pool []*fleet.Device, job *fleet.Job) ([]*fleet.Device, error)
}

// NewMatcher builds a Matcher from config. The permutation strategy owns a
// worker pool; callers should Stop() it on shutdown (see PermutationMatcher).
func NewMatcher(conf config.Matcher, log *logger.Logger) (Matcher, error) {
	switch conf.Strategy {
	case config.StrategyBipartite, "":
		return NewBipartiteMatcher(conf, log), nil
	case config.StrategyPermutation:
		return NewPermutationMatcher(conf, log), nil
	}
	return nil, fmt.Errorf("unknown matcher strategy: %q", conf.Strategy)
}

// FilterPool drops devices which can never take part in an assignment for
// the job: wrong status, no overlap with the requested device types, or not
// accessible to the job user. Running the matcher on the filtered pool is
// equivalent and cheaper.
func FilterPool(pool []*fleet.Device, job *fleet.Job) []*fleet.Device {
	types := map[string]bool{}
	for _, r := range job.Requirements {
		types[r.Type] = true
	}

	var out []*fleet.Device
	for _, d := range pool {
		if d.Status != fleet.StatusIdle {
			continue
		}
		if !d.Accessible(job.User) {
			continue
		}
		anyType := types[""]
		for _, t := range d.Types {
			if types[t] {
				anyType = true
				break
			}
		}
		if !anyType {
			continue
		}
		out = append(out, d)
	}
	return out
}

// dedupeBySerial removes devices whose serial was already seen earlier in
// the pool. Duplicate serials in a registry snapshot are malformed input;
// keeping the first occurrence preserves the exclusivity invariant without
// failing the allocation flow.
func dedupeBySerial(pool []*fleet.Device) []*fleet.Device {
	seen := make(map[string]bool, len(pool))
	out := make([]*fleet.Device, 0, len(pool))
	for _, d := range pool {
		if seen[d.Serial] {
			continue
		}
		seen[d.Serial] = true
		out = append(out, d)
	}
	return out
}
