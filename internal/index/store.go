package index

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store is the in-memory package dependency index. It keeps a forward map
// (package -> declared dependencies) and a reverse map (package -> packages
// that currently depend on it). A name is indexed iff it is a key of the
// forward map; the reverse map only holds entries with at least one
// dependent.
//
// Every operation runs under the store lock and is atomic with respect to
// every other operation: INDEX and REMOVE take the write lock, QUERY takes
// the read lock.
type Store struct {
	mu      sync.RWMutex
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}

	indexOK    atomic.Uint64
	indexFail  atomic.Uint64
	removeOK   atomic.Uint64
	removeFail atomic.Uint64
	queryHit   atomic.Uint64
	queryMiss  atomic.Uint64
}

// Counters is a point-in-time copy of the per-operation outcome totals.
type Counters struct {
	IndexOK    uint64
	IndexFail  uint64
	RemoveOK   uint64
	RemoveFail uint64
	QueryHit   uint64
	QueryMiss  uint64
}

func NewStore() *Store {
	return &Store{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// Index adds package name with the given dependency list, or replaces the
// dependency list if the package is already indexed. Duplicate names in deps
// collapse to a set.
//
// Returns false and leaves the store untouched if any dependency is not
// currently indexed. A package that names itself as a dependency therefore
// fails on first index and succeeds on re-index.
func (s *Store) Index(name string, deps []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range deps {
		if _, ok := s.forward[d]; !ok {
			s.indexFail.Add(1)
			return false
		}
	}

	depSet := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		depSet[d] = struct{}{}
	}

	old, existed := s.forward[name]
	if existed {
		// Re-index: drop reverse edges for dependencies no longer
		// declared, keep the rest.
		for d := range old {
			if _, still := depSet[d]; !still {
				s.dropReverse(d, name)
			}
		}
	}
	for d := range depSet {
		if existed {
			if _, had := old[d]; had {
				continue
			}
		}
		set, ok := s.reverse[d]
		if !ok {
			set = make(map[string]struct{})
			s.reverse[d] = set
		}
		set[name] = struct{}{}
	}

	s.forward[name] = depSet
	s.indexOK.Add(1)
	return true
}

// Remove deletes package name from the index. Removing a name that is not
// indexed is a no-op success. Returns false without changing state if any
// indexed package still depends on name.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, ok := s.forward[name]
	if !ok {
		s.removeOK.Add(1)
		return true
	}

	if len(s.reverse[name]) > 0 {
		s.removeFail.Add(1)
		return false
	}

	for d := range deps {
		s.dropReverse(d, name)
	}
	delete(s.forward, name)
	delete(s.reverse, name)
	s.removeOK.Add(1)
	return true
}

// Query reports whether name is currently indexed.
func (s *Store) Query(name string) bool {
	s.mu.RLock()
	_, ok := s.forward[name]
	s.mu.RUnlock()

	if ok {
		s.queryHit.Add(1)
	} else {
		s.queryMiss.Add(1)
	}
	return ok
}

// dropReverse removes pkg from dep's dependents set, deleting the set once
// empty. Caller holds the write lock. A missing edge means the two maps have
// diverged and the index is corrupt.
func (s *Store) dropReverse(dep, pkg string) {
	set, ok := s.reverse[dep]
	if !ok {
		panic(fmt.Sprintf("index corrupt: no dependents set for %q while unlinking %q", dep, pkg))
	}
	if _, ok := set[pkg]; !ok {
		panic(fmt.Sprintf("index corrupt: %q missing from dependents of %q", pkg, dep))
	}
	delete(set, pkg)
	if len(set) == 0 {
		delete(s.reverse, dep)
	}
}

// Len returns the number of indexed packages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forward)
}

// Counters returns a copy of the operation counters.
func (s *Store) Counters() Counters {
	return Counters{
		IndexOK:    s.indexOK.Load(),
		IndexFail:  s.indexFail.Load(),
		RemoveOK:   s.removeOK.Load(),
		RemoveFail: s.removeFail.Load(),
		QueryHit:   s.queryHit.Load(),
		QueryMiss:  s.queryMiss.Load(),
	}
}

// Snapshot returns a deep copy of the forward map. Intended for inspection
// and tests; the copy does not alias store state.
func (s *Store) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.forward))
	for name, deps := range s.forward {
		list := make([]string, 0, len(deps))
		for d := range deps {
			list = append(list, d)
		}
		out[name] = list
	}
	return out
}
