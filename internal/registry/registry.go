// Package registry implements the Order Registry of spec §4.1: a bi-indexed
// concurrent store of domain.OrderData, keyed independently by OrderID and
// by OwnerID, guarding both indexes with a single RWMutex in the style of
// the teacher's orderbook.Book.
package registry

import (
	"sync"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// Registry is a concurrent, bi-indexed store of resting orders. The zero
// value is not usable; construct with New.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]*domain.OrderData
	byOwner map[string]*domain.OrderData
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byID:    make(map[string]*domain.OrderData),
		byOwner: make(map[string]*domain.OrderData),
	}
}

// Add inserts o under both indexes. It returns false without modifying the
// registry if either o.OrderID or o.OwnerID is already present — spec §8
// property 1, uniqueness of both keys independently.
func (r *Registry) Add(o domain.OrderData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.OrderID]; ok {
		return false
	}
	if _, ok := r.byOwner[o.OwnerID]; ok {
		return false
	}
	cp := o
	r.byID[o.OrderID] = &cp
	r.byOwner[o.OwnerID] = &cp
	return true
}

// FindByID returns a copy of the order stored under id, or false if absent.
func (r *Registry) FindByID(id string) (domain.OrderData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return domain.OrderData{}, false
	}
	return *o, true
}

// FindByOwner returns a copy of the order stored under owner, or false if
// absent.
func (r *Registry) FindByOwner(owner string) (domain.OrderData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byOwner[owner]
	if !ok {
		return domain.OrderData{}, false
	}
	return *o, true
}

// UpdateByID applies patch to the order stored under id in place, reindexing
// byID if NewOrderID is set. OrigOrderID is stamped from the pre-patch
// OrderID the first time the order is modified, then left untouched on
// subsequent updates (spec §8 property 2). Returns false if id is absent, or
// if NewOrderID collides with a different existing order.
func (r *Registry) UpdateByID(id string, patch domain.OrderPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return false
	}
	return r.applyPatch(o, patch)
}

// UpdateByOwner behaves as UpdateByID but looks the order up by owner.
func (r *Registry) UpdateByOwner(owner string, patch domain.OrderPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byOwner[owner]
	if !ok {
		return false
	}
	return r.applyPatch(o, patch)
}

func (r *Registry) applyPatch(o *domain.OrderData, patch domain.OrderPatch) bool {
	if patch.NewOrderID != nil && *patch.NewOrderID != o.OrderID {
		if _, collide := r.byID[*patch.NewOrderID]; collide {
			return false
		}
	}
	if o.OrigOrderID == "" {
		o.OrigOrderID = o.OrderID
	}
	if patch.NewOrderID != nil && *patch.NewOrderID != o.OrderID {
		delete(r.byID, o.OrderID)
		o.OrderID = *patch.NewOrderID
		r.byID[o.OrderID] = o
	}
	if patch.NewPrice != nil {
		o.Price = *patch.NewPrice
	}
	if patch.NewQty != nil {
		o.Qty = *patch.NewQty
	}
	return true
}

// RemoveByID deletes the order stored under id from both indexes, returning
// it, or returns false if absent.
func (r *Registry) RemoveByID(id string) (domain.OrderData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return domain.OrderData{}, false
	}
	delete(r.byID, o.OrderID)
	delete(r.byOwner, o.OwnerID)
	return *o, true
}

// RemoveByOwner deletes the order stored under owner from both indexes,
// returning it, or returns false if absent.
func (r *Registry) RemoveByOwner(owner string) (domain.OrderData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byOwner[owner]
	if !ok {
		return domain.OrderData{}, false
	}
	delete(r.byID, o.OrderID)
	delete(r.byOwner, o.OwnerID)
	return *o, true
}

// ForEach calls fn once per resting order, in unspecified order, holding the
// read lock for the duration of the call. fn must not call back into the
// Registry.
func (r *Registry) ForEach(fn func(domain.OrderData)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.byID {
		fn(*o)
	}
}

// SelectBy returns copies of every order for which pred returns true.
func (r *Registry) SelectBy(pred func(domain.OrderData) bool) []domain.OrderData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.OrderData
	for _, o := range r.byID {
		if pred(*o) {
			out = append(out, *o)
		}
	}
	return out
}

// Len returns the number of resting orders currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
