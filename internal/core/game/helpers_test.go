package game

import (
	"sync"
	"time"

	"github.com/zeusync/pong/internal/core/observability/log"
)

// fixedRandom cycles through values.
type fixedRandom struct {
	values []float64
	next   int
}

func (r *fixedRandom) Float64() float64 {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

// towardPlayer2 launches every reset ball right and down.
func towardPlayer2() *fixedRandom { return &fixedRandom{values: []float64{0.9}} }

type manualDriver struct {
	started  int
	stopped  int
	interval time.Duration
}

func (d *manualDriver) Start(interval time.Duration, _ func()) {
	d.started++
	d.interval = interval
}

func (d *manualDriver) Stop() { d.stopped++ }

type emitted struct {
	kind     string
	snapshot Snapshot
	message  string
}

type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) BroadcastState(_ string, s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{kind: "state", snapshot: s})
}

func (r *recorder) BroadcastLog(_ string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{kind: "log", message: msg})
}

func (r *recorder) BroadcastGameOver(_ string, winner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{kind: "game_over", message: winner})
}

func (r *recorder) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) kinds() []string {
	var out []string
	for _, e := range r.all() {
		out = append(out, e.kind)
	}
	return out
}

func (r *recorder) logs() []string {
	var out []string
	for _, e := range r.all() {
		if e.kind == "log" {
			out = append(out, e.message)
		}
	}
	return out
}

func newTestMatch(maxScore int, rnd RandomSource) (*Match, *recorder, *manualDriver) {
	rec := &recorder{}
	drv := &manualDriver{}
	m := NewMatch("G1", "alice", "conn-a", rec, Options{
		MaxScore: maxScore,
		Random:   rnd,
		Driver:   drv,
		Logger:   log.Nop(),
	})
	return m, rec, drv
}

func newRunningMatch(maxScore int, rnd RandomSource) (*Match, *recorder, *manualDriver) {
	m, rec, drv := newTestMatch(maxScore, rnd)
	if err := m.Attach("bob", "conn-b"); err != nil {
		panic(err)
	}
	rec.reset()
	return m, rec, drv
}
