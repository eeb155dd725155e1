package vehicle

import (
	"sort"
	"sync"

	"github.com/kilianp07/evdemand/core/model"
)

// Registry resolves battery profiles by vehicle identifier.
type Registry interface {
	Vehicle(id int) (model.Vehicle, bool)
}

// MemoryRegistry is a Registry backed by an in-memory map.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[int]model.Vehicle
}

func NewMemoryRegistry(vehicles ...model.Vehicle) *MemoryRegistry {
	r := &MemoryRegistry{data: map[int]model.Vehicle{}}
	for _, v := range vehicles {
		r.data[v.ID] = v
	}
	return r
}

func (r *MemoryRegistry) Set(v model.Vehicle) {
	r.mu.Lock()
	r.data[v.ID] = v
	r.mu.Unlock()
}

func (r *MemoryRegistry) Vehicle(id int) (model.Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[id]
	return v, ok
}

// List returns all vehicles ordered by identifier.
func (r *MemoryRegistry) List() []model.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]model.Vehicle, 0, len(r.data))
	for _, v := range r.data {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Resolve looks up id in reg. A nil id, a nil registry or an unknown vehicle
// yields the default profile and false.
func Resolve(reg Registry, id *int) (model.Vehicle, bool) {
	if reg == nil || id == nil {
		return model.DefaultVehicle(), false
	}
	v, ok := reg.Vehicle(*id)
	if !ok {
		return model.DefaultVehicle(), false
	}
	return v, true
}
