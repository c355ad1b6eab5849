package mvcc

import (
	"sort"
	"sync"
	"time"
)

// chain is the append-only version history of a single record.
// Versions are held in an arena slice in creation order; the newest version
// is the last element. The per-chain lock is what keeps appends and deletion
// marks atomic with respect to concurrent readers without a store-wide lock.
type chain struct {
	mu       sync.RWMutex
	versions []*Version
}

// Store holds the version chains for one table.
// Readers never block readers; a writer only blocks access to the single
// chain it is appending to or marking.
type Store struct {
	table string

	mu           sync.RWMutex
	chains       map[uint64]*chain
	nextRecordID uint64
}

// NewStore creates an empty version store partition for the given table.
func NewStore(table string) *Store {
	return &Store{
		table:  table,
		chains: make(map[uint64]*chain),
	}
}

// Table returns the name of the table this store belongs to.
func (s *Store) Table() string {
	return s.table
}

// NextRecordID allocates the next record id for the table.
func (s *Store) NextRecordID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecordID++
	return s.nextRecordID
}

// SetNextRecordID moves the allocator forward. Used when restoring a
// persisted state snapshot; never moves backwards.
func (s *Store) SetNextRecordID(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.nextRecordID {
		s.nextRecordID = n
	}
}

// Append adds a version to the chain of the given record, creating the chain
// on first use.
func (s *Store) Append(recordID uint64, v Version) {
	c := s.chainFor(recordID, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.RecordID = recordID
	c.versions = append(c.versions, &v)
}

// ChainOf returns a copy of the version chain for the record in creation
// order. The copies are detached: mutating them does not touch the store.
func (s *Store) ChainOf(recordID uint64) []Version {
	c := s.chainFor(recordID, false)
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Version, len(c.versions))
	for i, v := range c.versions {
		out[i] = *v
	}
	return out
}

// RecordIDs returns every record id in the table in increasing order.
func (s *Store) RecordIDs() []uint64 {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.chains))
	for id := range s.chains {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// locate scans the chain newest-first under the read lock and returns a copy
// of the first version matching the predicate.
func (s *Store) locate(recordID uint64, match func(*Version) bool) (Version, bool) {
	c := s.chainFor(recordID, false)
	if c == nil {
		return Version{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.versions) - 1; i >= 0; i-- {
		if match(c.versions[i]) {
			return *c.versions[i], true
		}
	}
	return Version{}, false
}

// appendIf appends v to the chain unless some resident version matches the
// conflict predicate. Check and append happen under one chain lock, so two
// racing inserts of the same record cannot both pass the check.
func (s *Store) appendIf(recordID uint64, conflict func(*Version) bool, v Version) bool {
	c := s.chainFor(recordID, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.versions) - 1; i >= 0; i-- {
		if conflict(c.versions[i]) {
			return false
		}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.RecordID = recordID
	c.versions = append(c.versions, &v)
	return true
}

// mutate runs fn over the chain newest-first under the write lock, stopping
// at the first version for which fn returns true. fn may stamp DeletedBy.
// The appended slice returned by fn, if any, is added to the chain before the
// lock is released so that mark and replacement land atomically.
func (s *Store) mutate(recordID uint64, fn func(*Version) (stop bool, appended *Version)) bool {
	c := s.chainFor(recordID, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.versions) - 1; i >= 0; i-- {
		stop, appended := fn(c.versions[i])
		if !stop {
			continue
		}
		if appended != nil {
			if appended.CreatedAt.IsZero() {
				appended.CreatedAt = time.Now()
			}
			appended.RecordID = recordID
			c.versions = append(c.versions, appended)
		}
		return true
	}
	return false
}

// restampMark rewrites the deletion mark on a resident version under the
// chain lock. Used at commit time: the DeletedBy slot is shared, so a
// concurrent writer may have overwritten the mark while both transactions
// were active, and the committing transaction's mark is the one that must
// survive.
func (s *Store) restampMark(recordID uint64, v *Version, txnID uint64) {
	c := s.chainFor(recordID, false)
	if c == nil {
		return
	}
	c.mu.Lock()
	v.DeletedBy = txnID
	c.mu.Unlock()
}

func (s *Store) chainFor(recordID uint64, create bool) *chain {
	s.mu.RLock()
	c, ok := s.chains[recordID]
	s.mu.RUnlock()
	if ok || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.chains[recordID]; !ok {
		c = &chain{}
		s.chains[recordID] = c
	}
	return c
}
