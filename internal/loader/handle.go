// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"sync/atomic"

	"github.com/emberdeck/packwright/internal/registry"
)

// Handle is the process-wide reference to the active registry. Switching
// pack sets never mutates the current registry in place; a new session
// builds a fresh frozen registry and the reference is swapped.
type Handle struct {
	current atomic.Pointer[registry.Registry]
}

// Current returns the active registry, or nil before the first swap.
func (h *Handle) Current() *registry.Registry {
	return h.current.Load()
}

// Swap installs a frozen registry as the active one and returns the
// previous registry (nil on first install). Only frozen registries can
// become active.
func (h *Handle) Swap(r *registry.Registry) (*registry.Registry, error) {
	if r.State() != registry.StateFrozen {
		return nil, fmt.Errorf("%w: cannot activate registry in state %s", registry.ErrNotFrozen, r.State())
	}
	return h.current.Swap(r), nil
}
