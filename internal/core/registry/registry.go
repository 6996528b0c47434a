package registry

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/pong/internal/core/game"
)

const defaultShardCount = 16

// Registry is the set of live matches keyed by id. Ids are issued from a
// process-wide counter and never reused.
type Registry struct {
	shards []shard
	count  uint32
	seq    atomic.Uint64
	size   atomic.Int64
}

type shard struct {
	mx      sync.RWMutex
	matches map[string]*game.Match
}

func New(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	r := &Registry{
		shards: make([]shard, shardCount),
		count:  uint32(shardCount),
	}
	for i := range r.shards {
		r.shards[i].matches = make(map[string]*game.Match)
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	return &r.shards[uint32(xxhash.Sum64String(id))%r.count]
}

// NextID returns a fresh match id of the form "G<n>", starting at G1.
func (r *Registry) NextID() string {
	return "G" + strconv.FormatUint(r.seq.Add(1), 10)
}

func (r *Registry) Add(m *game.Match) error {
	sh := r.shardFor(m.ID())
	sh.mx.Lock()
	defer sh.mx.Unlock()

	if _, exists := sh.matches[m.ID()]; exists {
		return ErrDuplicateID
	}
	sh.matches[m.ID()] = m
	r.size.Add(1)
	return nil
}

func (r *Registry) Get(id string) (*game.Match, error) {
	sh := r.shardFor(id)
	sh.mx.RLock()
	defer sh.mx.RUnlock()

	m, ok := sh.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Remove deletes id and returns the removed match.
func (r *Registry) Remove(id string) (*game.Match, bool) {
	sh := r.shardFor(id)
	sh.mx.Lock()
	defer sh.mx.Unlock()

	m, ok := sh.matches[id]
	if ok {
		delete(sh.matches, id)
		r.size.Add(-1)
	}
	return m, ok
}

func (r *Registry) Len() int {
	return int(r.size.Load())
}

// Range calls fn for every match until fn returns false. The shard lock is
// not held while fn runs.
func (r *Registry) Range(fn func(m *game.Match) bool) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mx.RLock()
		batch := make([]*game.Match, 0, len(sh.matches))
		for _, m := range sh.matches {
			batch = append(batch, m)
		}
		sh.mx.RUnlock()

		for _, m := range batch {
			if !fn(m) {
				return
			}
		}
	}
}

// IDs returns every registered id in creation order.
func (r *Registry) IDs() []string {
	var ids []string
	r.Range(func(m *game.Match) bool {
		ids = append(ids, m.ID())
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })
	return ids
}

// FindByConn returns the match that connRef plays in.
func (r *Registry) FindByConn(connRef string) (*game.Match, bool) {
	var found *game.Match
	r.Range(func(m *game.Match) bool {
		if _, ok := m.RoleOf(connRef); ok {
			found = m
			return false
		}
		return true
	})
	return found, found != nil
}

// Stale returns matches that have waited for an opponent longer than maxWait.
func (r *Registry) Stale(now time.Time, maxWait time.Duration) []*game.Match {
	if maxWait <= 0 {
		return nil
	}
	var stale []*game.Match
	r.Range(func(m *game.Match) bool {
		if m.Phase() == game.PhaseWaiting && now.Sub(m.CreatedAt()) > maxWait {
			stale = append(stale, m)
		}
		return true
	})
	return stale
}

func idLess(a, b string) bool {
	na, errA := strconv.ParseUint(a[min(1, len(a)):], 10, 64)
	nb, errB := strconv.ParseUint(b[min(1, len(b)):], 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}
