package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

type Collector interface {
	Counter(name string) Counter
	Gauge(name string) Gauge
	Export() []Sample
}

type Counter interface {
	Inc()
	Add(delta uint64)
	Value() uint64
}

type Gauge interface {
	Set(v int64)
	Inc()
	Dec()
	Value() int64
}

// Sample is one exported value.
type Sample struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value int64  `json:"value"`
}

type counter struct{ v atomic.Uint64 }

func (c *counter) Inc()             { c.v.Add(1) }
func (c *counter) Add(delta uint64) { c.v.Add(delta) }
func (c *counter) Value() uint64    { return c.v.Load() }

type gauge struct{ v atomic.Int64 }

func (g *gauge) Set(v int64)  { g.v.Store(v) }
func (g *gauge) Inc()         { g.v.Add(1) }
func (g *gauge) Dec()         { g.v.Add(-1) }
func (g *gauge) Value() int64 { return g.v.Load() }

// InMemory keeps instruments in process. Instruments are created on first use
// and the same name always returns the same instrument.
type InMemory struct {
	mu       sync.RWMutex
	counters map[string]*counter
	gauges   map[string]*gauge
}

func NewInMemory() *InMemory {
	return &InMemory{
		counters: make(map[string]*counter),
		gauges:   make(map[string]*gauge),
	}
}

var _ Collector = (*InMemory)(nil)

func (m *InMemory) Counter(name string) Counter {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = &counter{}
		m.counters[name] = c
	}
	return c
}

func (m *InMemory) Gauge(name string) Gauge {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok = m.gauges[name]; !ok {
		g = &gauge{}
		m.gauges[name] = g
	}
	return g
}

// Export returns every instrument sorted by name.
func (m *InMemory) Export() []Sample {
	m.mu.RLock()
	out := make([]Sample, 0, len(m.counters)+len(m.gauges))
	for name, c := range m.counters {
		out = append(out, Sample{Name: name, Kind: "counter", Value: int64(c.Value())})
	}
	for name, g := range m.gauges {
		out = append(out, Sample{Name: name, Kind: "gauge", Value: g.Value()})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
