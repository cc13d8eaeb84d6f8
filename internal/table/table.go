// Package table implements the per-worker station table: an open-addressing
// hash table keyed by station name with a fixed-size prefix fast path.
package table

import (
	"bytes"
	"errors"

	"github.com/jkroepke/1brc-stages/internal/measure"
)

const (
	// MaxStations is the largest number of distinct stations a table accepts.
	MaxStations = 10_000
	// MaxNameLen is the longest accepted station name in bytes.
	MaxNameLen = 100
	// PrefixLen is the number of leading name bytes stored inline in a slot,
	// sized from the ~14 byte average station name.
	PrefixLen = 16

	slotBits = 14
	slots    = 1 << slotBits
	mask     = slots - 1
)

var ErrCapacityExceeded = errors.New("more than 10000 distinct stations")

type entry struct {
	hash   uint64
	prefix [PrefixLen]byte
	name   []byte
	stats  measure.Stats
}

// Table maps station names to their statistics. It is not safe for
// concurrent use; each worker owns one.
type Table struct {
	h       hasher
	index   [slots]uint16 // entries position + 1, 0 marks an empty slot
	entries []entry
	names   []byte
}

func New() *Table {
	return &Table{
		h:       newHasher(),
		entries: make([]entry, 0, 1024),
		names:   make([]byte, 0, 16*1024),
	}
}

// Add folds one reading for name into the table. name is copied on first
// sight, so the caller may reuse its buffer.
func (t *Table) Add(name []byte, temp measure.Temperature) error {
	e, err := t.lookup(name)
	if err != nil {
		return err
	}
	if e.stats.Count == 0 {
		e.stats = measure.NewStats(temp)
		return nil
	}
	e.stats.Add(temp)
	return nil
}

func (t *Table) Get(name []byte) (measure.Stats, bool) {
	hash := t.h.sum(name)
	prefix := prefixOf(name)
	for i := hash & mask; ; i = (i + 1) & mask {
		pos := t.index[i]
		if pos == 0 {
			return measure.Stats{}, false
		}
		e := &t.entries[pos-1]
		if e.matches(hash, &prefix, name) {
			return e.stats, true
		}
	}
}

// Len returns the number of distinct stations.
func (t *Table) Len() int {
	return len(t.entries)
}

// Each calls fn for every station in insertion order. name must not be
// retained past the table's lifetime nor modified.
func (t *Table) Each(fn func(name []byte, s measure.Stats)) {
	for i := range t.entries {
		fn(t.entries[i].name, t.entries[i].stats)
	}
}

func (t *Table) lookup(name []byte) (*entry, error) {
	hash := t.h.sum(name)
	prefix := prefixOf(name)

	i := hash & mask
	for ; ; i = (i + 1) & mask {
		pos := t.index[i]
		if pos == 0 {
			break
		}
		e := &t.entries[pos-1]
		if e.matches(hash, &prefix, name) {
			return e, nil
		}
	}

	if len(t.entries) == MaxStations {
		return nil, ErrCapacityExceeded
	}

	start := len(t.names)
	t.names = append(t.names, name...)
	t.entries = append(t.entries, entry{
		hash:   hash,
		prefix: prefix,
		name:   t.names[start:len(t.names):len(t.names)],
	})
	t.index[i] = uint16(len(t.entries))

	return &t.entries[len(t.entries)-1], nil
}

// matches reports whether e holds name. Hash and prefix only filter; the
// full bytes decide.
func (e *entry) matches(hash uint64, prefix *[PrefixLen]byte, name []byte) bool {
	return e.hash == hash &&
		e.prefix == *prefix &&
		len(e.name) == len(name) &&
		bytes.Equal(e.name, name)
}

func prefixOf(name []byte) (p [PrefixLen]byte) {
	copy(p[:], name)
	return p
}
