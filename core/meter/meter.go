package meter

import (
	"sort"
	"sync"
)

// Meter supplies the cumulative energy delivered to an appliance in kWh.
type Meter interface {
	EnergyKWh() float64
}

// Read returns the meter value, or 0 when no meter is attached.
func Read(m Meter) float64 {
	if m == nil {
		return 0
	}
	return m.EnergyKWh()
}

// Cumulative is a Meter holding the last reported total.
type Cumulative struct {
	mu  sync.RWMutex
	kwh float64
}

func NewCumulative() *Cumulative { return &Cumulative{} }

// Set stores a new cumulative reading.
func (c *Cumulative) Set(kwh float64) {
	c.mu.Lock()
	c.kwh = kwh
	c.mu.Unlock()
}

func (c *Cumulative) EnergyKWh() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kwh
}

// Store keeps one Cumulative meter per appliance.
type Store struct {
	mu     sync.Mutex
	meters map[string]*Cumulative
}

func NewStore() *Store {
	return &Store{meters: map[string]*Cumulative{}}
}

// Get returns the meter for applianceID, creating it on first use.
func (s *Store) Get(applianceID string) *Cumulative {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meters[applianceID]
	if !ok {
		m = NewCumulative()
		s.meters[applianceID] = m
	}
	return m
}

// IDs lists the appliances with a meter, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.meters))
	for id := range s.meters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
