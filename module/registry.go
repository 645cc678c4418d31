// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package module

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/tx"
)

// ErrUnknownModule is returned when no module is registered for a kind.
var ErrUnknownModule = errors.New("unknown module")

// Registry is the static envelope router. Modules are registered once at
// construction; there is no dynamic loading.
type Registry struct {
	modules map[tx.Kind]Module
	order   []Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[tx.Kind]Module)}
}

// Register adds a module. It panics if the kind is already taken, since
// that is a wiring mistake, not a runtime condition.
func (r *Registry) Register(m Module) *Registry {
	kind := m.Kind()
	if _, ok := r.modules[kind]; ok {
		panic(fmt.Sprintf("module kind %v already registered", kind))
	}
	r.modules[kind] = m
	r.order = append(r.order, m)
	return r
}

// Resolve returns the module owning the kind.
func (r *Registry) Resolve(kind tx.Kind) (Module, error) {
	m, ok := r.modules[kind]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownModule, "kind %d", kind)
	}
	return m, nil
}

// All returns the modules in registration order. Genesis seeding and
// finalize hooks follow this order.
func (r *Registry) All() []Module {
	return r.order
}
