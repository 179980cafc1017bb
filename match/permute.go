package match

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/logger"
)

// PermutationMatcher finds an assignment by enumerating permutations of the
// requirement slots and scanning the device list forward for each one. The
// device list keeps its original relative order; only slots are permuted.
//
// The search is exhaustive and can take factorial time, so it runs on a
// worker pool with a wall-clock timeout; on timeout the match is reported
// infeasible. This matcher predates BipartiteMatcher and is kept as a
// configurable alternative; it is the right shape if the compatibility
// predicate ever becomes expensive enough to need cancellation midway.
type PermutationMatcher struct {
	timeout time.Duration
	wp      *workerpool.WorkerPool
	log     *logger.Logger
}

// NewPermutationMatcher returns a PermutationMatcher with a running worker
// pool. Callers own the pool lifecycle and should call Stop on shutdown.
func NewPermutationMatcher(conf config.Matcher, log *logger.Logger) *PermutationMatcher {
	if log == nil {
		log = logger.NewLogger("matcher", logger.DefaultConfig())
	}
	timeout := time.Duration(conf.SearchTimeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := conf.Workers
	if workers <= 0 {
		workers = 4
	}
	return &PermutationMatcher{
		timeout: timeout,
		wp:      workerpool.New(workers),
		log:     log,
	}
}

// Stop shuts down the worker pool, waiting for in-flight searches to notice
// their cancelled contexts.
func (m *PermutationMatcher) Stop() {
	m.wp.StopWait()
}

// Match implements Matcher.
func (m *PermutationMatcher) Match(ctx context.Context, pool []*fleet.Device, job *fleet.Job) ([]*fleet.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slots := job.Requirements
	if len(pool) < len(slots) {
		m.log.Debug("Not enough devices to match requirements",
			"job", job.ID, "devices", len(pool), "requirements", len(slots))
		return nil, nil
	}
	if len(slots) == 0 {
		return []*fleet.Device{}, nil
	}

	devices := dedupeBySerial(pool)
	if len(devices) < len(slots) {
		m.log.Debug("Not enough distinct devices to match requirements",
			"job", job.ID, "devices", len(devices), "requirements", len(slots))
		return nil, nil
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the search can complete after a timeout without leaking.
	resultCh := make(chan []*fleet.Device, 1)
	m.wp.Submit(func() {
		resultCh <- permutationSearch(searchCtx, devices, slots)
	})

	select {
	case result := <-resultCh:
		if len(result) == 0 {
			return nil, nil
		}
		return result, nil
	case <-time.After(m.timeout):
		m.log.Warn("Search for a device set timed out",
			"job", job.ID, "timeout", m.timeout)
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// permutationSearch tries every permutation of slot indices until one can be
// matched with a forward scan over the device list, returning the matched
// devices in slot order, or nil.
func permutationSearch(ctx context.Context, devices []*fleet.Device, slots []*fleet.Requirement) []*fleet.Device {
	// Checking whether a device fits a slot may repeat across permutations,
	// so cache the predicate results for this search.
	type pair struct{ device, slot int }
	cache := make(map[pair]bool)
	supports := func(device, slot int) bool {
		key := pair{device, slot}
		ok, seen := cache[key]
		if !seen {
			ok = Supports(devices[device], slots[slot])
			cache[key] = ok
		}
		return ok
	}

	var result []*fleet.Device
	perms(len(slots), func(perm []int) bool {
		if ctx.Err() != nil {
			return true
		}

		// Slide "current" along the device list, binding the current device
		// to the next unmatched permuted slot. Devices are never reordered.
		current := 0
		picked := make([]int, 0, len(perm))
		for i := range perm {
			// Keep going while the number of unmatched slots is not more
			// than the number of remaining devices.
			for len(perm)-i <= len(devices)-current {
				if supports(current, perm[i]) {
					picked = append(picked, current)
					current++
					break
				}
				current++
			}
		}
		if len(picked) != len(perm) {
			return false
		}

		result = make([]*fleet.Device, len(perm))
		for i, device := range picked {
			result[perm[i]] = devices[device]
		}
		return true
	})
	return result
}

// perms calls visit with every permutation of [0, n). The visit callback
// returns true to stop the enumeration. The perm slice is reused between
// calls and must not be retained.
func perms(n int, visit func(perm []int) bool) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	var generate func(k int) bool
	generate = func(k int) bool {
		if k == 1 {
			return visit(perm)
		}
		for i := 0; i < k; i++ {
			if generate(k - 1) {
				return true
			}
			if k%2 == 0 {
				perm[i], perm[k-1] = perm[k-1], perm[i]
			} else {
				perm[0], perm[k-1] = perm[k-1], perm[0]
			}
		}
		return false
	}
	generate(n)
}
