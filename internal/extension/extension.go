// Package extension holds the build-time table of command-provider units and
// the loader that drives their registration. Extension packages register
// themselves from init(); cmd/bot blank-imports the packages it ships.
package extension

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"botcore/internal/command"
)

// Unit is one command-provider: a named bundle that registers zero or more
// descriptors against a registry handle.
type Unit interface {
	Name() string
	Register(r *command.Registry) error
}

var (
	mu    sync.Mutex
	units []Unit
)

// Add puts a unit on the load table. Called from extension package init().
func Add(u Unit) {
	mu.Lock()
	defer mu.Unlock()
	units = append(units, u)
}

// Units returns a snapshot of the table sorted lexically by unit name, so
// load order (and therefore duplicate-name conflicts) is reproducible
// across runs.
func Units() []Unit {
	mu.Lock()
	defer mu.Unlock()
	snapshot := make([]Unit, len(units))
	copy(snapshot, units)
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Name() < snapshot[j].Name() })
	return snapshot
}

// LoadAll runs every public unit's registration against r. A unit that
// errors or panics is recorded and loading continues; a single broken
// extension never stops the rest or the process.
func LoadAll(r *command.Registry) Report {
	return Load(Units(), r)
}

// Load is LoadAll over an explicit unit list; tests use it directly.
func Load(list []Unit, r *command.Registry) Report {
	report := make(Report, 0, len(list))
	for _, u := range list {
		if strings.HasPrefix(u.Name(), "_") {
			continue // private unit, not loadable
		}
		report = append(report, UnitResult{
			Unit: u.Name(),
			Err:  registerSafely(u, r),
		})
	}
	return report
}

func registerSafely(u Unit, r *command.Registry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extension %s panicked: %v", u.Name(), rec)
		}
	}()
	return u.Register(r)
}
