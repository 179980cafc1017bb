package match

import (
	"context"
	"math/rand"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
)

// BipartiteMatcher finds an assignment by maximum-cardinality matching on
// the slot/device compatibility graph. It is exact: if any slot-ordered,
// serial-exclusive assignment exists, one is found. Polynomial time, no
// timeout needed.
type BipartiteMatcher struct {
	// Shuffle randomizes the device pool before the graph is built, so
	// that ties between equally compatible devices don't always resolve
	// to the device listed first.
	Shuffle bool

	// Rand is the source used for shuffling. Defaults to the global source.
	Rand *rand.Rand

	log *logger.Logger
}

// NewBipartiteMatcher returns a BipartiteMatcher configured from conf.
func NewBipartiteMatcher(conf config.Matcher, log *logger.Logger) *BipartiteMatcher {
	if log == nil {
		log = logger.NewLogger("matcher", logger.DefaultConfig())
	}
	return &BipartiteMatcher{
		Shuffle: conf.Shuffle,
		log:     log,
	}
}

// Match implements Matcher.
func (m *BipartiteMatcher) Match(ctx context.Context, pool []*fleet.Device, job *fleet.Job) ([]*fleet.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slots := job.Requirements
	if len(pool) < len(slots) {
		// Expected and common, not an error.
		m.log.Debug("Not enough devices to match requirements",
			"job", job.ID, "devices", len(pool), "requirements", len(slots))
		return nil, nil
	}
	if len(slots) == 0 {
		return []*fleet.Device{}, nil
	}

	devices := dedupeBySerial(pool)
	if m.Shuffle {
		// Shuffle before graph construction: the augmenting search picks
		// the first compatible device it visits, so order decides ties.
		devices = append([]*fleet.Device{}, devices...)
		if m.Rand != nil {
			m.Rand.Shuffle(len(devices), func(i, j int) {
				devices[i], devices[j] = devices[j], devices[i]
			})
		} else {
			rand.Shuffle(len(devices), func(i, j int) {
				devices[i], devices[j] = devices[j], devices[i]
			})
		}
	}
	if len(devices) < len(slots) {
		m.log.Debug("Not enough distinct devices to match requirements",
			"job", job.ID, "devices", len(devices), "requirements", len(slots))
		return nil, nil
	}

	// adj[i] holds the device indices compatible with slot i.
	adj := make([][]int, len(slots))
	for i, r := range slots {
		for j, d := range devices {
			if Supports(d, r) {
				adj[i] = append(adj[i], j)
			}
		}
		if len(adj[i]) == 0 {
			m.log.Debug("No compatible device for requirement",
				"job", job.ID, "requirement", i)
			return nil, nil
		}
	}

	// Standard augmenting-path matching. slotOf[j] is the slot currently
	// holding device j, or -1.
	slotOf := make([]int, len(devices))
	for j := range slotOf {
		slotOf[j] = -1
	}

	var augment func(slot int, visited []bool) bool
	augment = func(slot int, visited []bool) bool {
		for _, j := range adj[slot] {
			if visited[j] {
				continue
			}
			visited[j] = true
			if slotOf[j] == -1 || augment(slotOf[j], visited) {
				slotOf[j] = slot
				return true
			}
		}
		return false
	}

	matched := 0
	for i := range slots {
		if augment(i, make([]bool, len(devices))) {
			matched++
		}
	}
	if matched < len(slots) {
		m.log.Debug("No feasible assignment covers all requirements",
			"job", job.ID, "matched", matched, "requirements", len(slots))
		return nil, nil
	}

	result := make([]*fleet.Device, len(slots))
	for j, slot := range slotOf {
		if slot >= 0 {
			result[slot] = devices[j]
		}
	}
	return result, nil
}
