package maglev

import (
	"errors"
	"fmt"
	"hash"
	"sort"
	"sync"
)

var (
	// ErrInvalidTableSize is returned when table size is not a prime number.
	ErrInvalidTableSize = errors.New("maglev: table size is not a prime number")

	// ErrCapacityExceeded is returned when number of backends would become
	// greater than table size.
	ErrCapacityExceeded = errors.New("maglev: number of backends exceeds table size")

	// ErrDuplicateBackend is returned when backend already exists.
	ErrDuplicateBackend = errors.New("maglev: backend already exists")

	// ErrNotFound is returned when backend doesn't exist.
	ErrNotFound = errors.New("maglev: backend doesn't exist")

	// ErrEmpty is returned by lookups on a table having no backends.
	ErrEmpty = errors.New("maglev: table is empty")
)

func errorf(err error, name string) error {
	return fmt.Errorf("%w: %q", err, name)
}

// Table is a Maglev consistent hashing lookup table.
// It is goroutine safe. Table instances must not be copied.
//
// The zero value for Table is an empty table of zero size. Reset() must be
// called to give it a size before any backends are set.
type Table struct {
	// Hash is an optional function used to build up a new 64-bit hash
	// function seeded by the given seed. Two distinct seeds are used to
	// calculate offset and skip of backend's permutation; the offset seed is
	// also used to hash the keys.
	//
	// If Hash is nil, then SipHash is used. Hash must not be changed after
	// the first use of the table.
	Hash func(seed uint64) hash.Hash64

	once       sync.Once
	offsetHash *hasher
	skipHash   *hasher

	// mu serializes write operations on the table.
	// It should be held while preparing a new snapshot.
	mu sync.Mutex

	// snapMu serializes reads and updates of the snap pointer.
	snapMu sync.RWMutex

	// snap holds the last completely built state of the table.
	// It is nil for the zero Table.
	snap *snapshot

	trace traceTable
}

// snapshot is an immutable state of the table.
type snapshot struct {
	size        int
	set         backendSet
	backends    []string // Canonical order.
	permutation [][]int
	lookup      []int // Slot to index in backends.
}

var emptySnapshot = &snapshot{}

// New creates a new table of given size populated with given backends.
// Size must be a prime number not less than number of backends. Backends
// must not contain duplicates.
func New(backends []string, size int) (*Table, error) {
	t := new(Table)
	if err := t.Reset(size); err != nil {
		return nil, err
	}
	if err := t.SetBackends(backends); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) init() {
	t.once.Do(func() {
		t.offsetHash = newHasher(t.Hash, offsetSeed)
		t.skipHash = newHasher(t.Hash, skipSeed)
		setupTableTrace(t)
	})
}

// Reset removes all backends from the table and changes its size.
// It returns non-nil error if size is not a prime number.
func (t *Table) Reset(size int) error {
	if !IsPrime(size) {
		return fmt.Errorf("%w: %d", ErrInvalidTableSize, size)
	}
	t.init()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rebuild(size, backendSet{})
	return nil
}

// Clear removes all backends from the table and resets its size to zero.
// Lookups fail until the table is Reset() and populated again.
func (t *Table) Clear() {
	t.init()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.publish(emptySnapshot)
}

// SetBackends replaces backends of the table.
// It returns non-nil error when there are more backends than table size or
// some backend is listed twice. Table is left unchanged in that case.
func (t *Table) SetBackends(backends []string) error {
	t.init()

	t.mu.Lock()
	defer t.mu.Unlock()

	size := t.current().size
	if n := len(backends); n > size {
		return fmt.Errorf(
			"%w: %d backends for table of size %d",
			ErrCapacityExceeded, n, size,
		)
	}
	set, err := makeBackendSet(backends)
	if err != nil {
		return err
	}
	t.rebuild(size, set)

	return nil
}

// AddBackend puts backend b into the table.
// It returns non-nil error when b already exists or the table has as many
// backends as slots.
func (t *Table) AddBackend(b string) error {
	t.init()

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.current()
	if s.set.has(b) {
		return errorf(ErrDuplicateBackend, b)
	}
	if n := s.set.size(); n >= s.size {
		return fmt.Errorf(
			"%w: table of size %d is full",
			ErrCapacityExceeded, s.size,
		)
	}
	set, err := s.set.insert(b)
	if err != nil {
		return err
	}
	t.rebuild(s.size, set)

	return nil
}

// RemoveBackend removes backend b from the table.
// It returns non-nil error when b doesn't exist.
func (t *Table) RemoveBackend(b string) error {
	t.init()

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.current()
	set, err := s.set.delete(b)
	if err != nil {
		return err
	}
	t.rebuild(s.size, set)

	return nil
}

// Get returns backend which key is mapped to.
// It returns ErrEmpty when table has no backends.
func (t *Table) Get(key string) (string, error) {
	t.init()
	s := t.current()
	if len(s.backends) == 0 {
		return "", ErrEmpty
	}
	slot := t.offsetHash.sumString(key) % uint64(s.size)
	return s.backends[s.lookup[slot]], nil
}

// GetBytes is like Get() but accepts key as a byte slice.
func (t *Table) GetBytes(key []byte) (string, error) {
	t.init()
	s := t.current()
	if len(s.backends) == 0 {
		return "", ErrEmpty
	}
	slot := t.offsetHash.sumBytes(key) % uint64(s.size)
	return s.backends[s.lookup[slot]], nil
}

// Slot returns index of the table slot which key is mapped to.
// It returns ErrEmpty when table has no backends.
func (t *Table) Slot(key string) (int, error) {
	t.init()
	s := t.current()
	if len(s.backends) == 0 {
		return 0, ErrEmpty
	}
	return int(t.offsetHash.sumString(key) % uint64(s.size)), nil
}

// Has reports whether backend b exists in the table.
func (t *Table) Has(b string) bool {
	return t.current().set.has(b)
}

// Size returns the table size.
func (t *Table) Size() int {
	return t.current().size
}

// Len returns the number of backends in the table.
func (t *Table) Len() int {
	return len(t.current().backends)
}

// Backends returns backends of the table in canonical order.
func (t *Table) Backends() []string {
	return append([]string(nil), t.current().backends...)
}

// Lookup returns a copy of the lookup table. Each element is an index of
// backend in a slice returned by Backends().
func (t *Table) Lookup() []int {
	return append([]int(nil), t.current().lookup...)
}

// Permutation returns a copy of backend's b preference order of slots.
// It returns nil if b doesn't exist.
func (t *Table) Permutation(b string) []int {
	s := t.current()
	i := sort.SearchStrings(s.backends, b)
	if i == len(s.backends) || s.backends[i] != b {
		return nil
	}
	return append([]int(nil), s.permutation[i]...)
}

// Distribution returns number of slots owned by each backend.
func (t *Table) Distribution() map[string]int {
	s := t.current()
	ret := make(map[string]int, len(s.backends))
	for _, i := range s.lookup {
		ret[s.backends[i]]++
	}
	return ret
}

func (t *Table) current() *snapshot {
	t.snapMu.RLock()
	s := t.snap
	t.snapMu.RUnlock()
	if s == nil {
		return emptySnapshot
	}
	return s
}

// t.mu must be held.
func (t *Table) rebuild(size int, set backendSet) {
	s := &snapshot{
		size: size,
		set:  set,
	}
	if n := set.size(); n > 0 {
		trace := t.trace.onRebuild(size, n)

		s.backends = set.names()
		s.permutation = t.permutations(s.backends, size)

		var rounds int
		s.lookup, rounds = populate(s.permutation, size)
		assertSnapshot(s)

		trace.onDone(rounds)
	}
	t.publish(s)
}

// t.mu must be held.
func (t *Table) publish(s *snapshot) {
	t.snapMu.Lock()
	t.snap = s
	t.snapMu.Unlock()

	t.trace.onPublish(s.size, s.backends)
}
