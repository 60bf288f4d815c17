package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps command names and aliases to descriptors. It is populated
// during the load phase and read-only from the dispatcher's point of view
// afterwards; the mutex exists for the benefit of tests and future reloads,
// not steady-state dispatch.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Descriptor // canonical name -> descriptor
	aliases  map[string]string      // alias -> canonical name
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Descriptor),
		aliases:  make(map[string]string),
	}
}

// Register adds a descriptor. The registry stores its own copy with names
// and aliases case-normalized; the caller's struct is never modified. A name
// or alias collision fails with ErrDuplicateName and leaves the registry
// exactly as it was.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	name := strings.ToLower(strings.TrimSpace(d.Name))
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: command %q has no handler", ErrInvalidDescriptor, name)
	}
	if d.Surfaces == 0 {
		return fmt.Errorf("%w: command %q advertises no surfaces", ErrInvalidDescriptor, name)
	}

	aliases := make([]string, 0, len(d.Aliases))
	for _, a := range d.Aliases {
		alias := strings.ToLower(strings.TrimSpace(a))
		if alias == "" || alias == name {
			continue
		}
		aliases = append(aliases, alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate every key before touching the maps so a failed registration
	// cannot leave a half-registered command behind.
	if err := r.checkTaken(name); err != nil {
		return err
	}
	for _, alias := range aliases {
		if err := r.checkTaken(alias); err != nil {
			return err
		}
	}

	stored := *d
	stored.Name = name
	stored.Aliases = aliases
	r.commands[name] = &stored
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) checkTaken(key string) error {
	if _, ok := r.commands[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, key)
	}
	if owner, ok := r.aliases[key]; ok {
		return fmt.Errorf("%w: %q (alias of %q)", ErrDuplicateName, key, owner)
	}
	return nil
}

// Resolve looks up token (case-insensitive, aliases included) among commands
// that support the given surface. Absence is a normal outcome, not an error.
func (r *Registry) Resolve(token string, surface Surface) (*Descriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(token))

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.commands[key]
	if !ok {
		if name, aliased := r.aliases[key]; aliased {
			d, ok = r.commands[name]
		}
	}
	if !ok || !d.Surfaces.Has(surface) {
		return nil, false
	}
	return d, true
}

// All returns every registered descriptor, sorted by name.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Len returns the number of registered commands (aliases not counted).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
