package search

import (
	"math/bits"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/quarto/board"
	"github.com/domino14/quarto/piece"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// approximate size of a TableEntry, padding included
const entrySize = 40

const minSizePowerOf2 = 10

// NodeKey identifies a search node exactly. Alpha and beta are not part of
// it; the bound flag of an entry says how its score may be reused.
type NodeKey struct {
	Board      board.Board
	Remaining  piece.Set
	Pending    piece.Piece
	Depth      int8
	Maximizing bool
}

type TableEntry struct {
	key   NodeKey
	score float64
	flag  uint8
}

func (t TableEntry) valid() bool {
	return t.flag != 0
}

// TranspositionTable caches node scores for one decision. It is not safe for
// concurrent use, and must not outlive the turn it was created for.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: a different node lives in the slot.
	t2collisions atomic.Uint64
}

// NewTranspositionTable allocates a table of about sizeMB megabytes, capped
// at fractionOfMemory of the machine's physical memory.
func NewTranspositionTable(sizeMB int, fractionOfMemory float64) *TranspositionTable {
	desiredNElems := uint64(sizeMB) * 1024 * 1024 / entrySize
	totalMem := memory.TotalMemory()
	if totalMem > 0 && fractionOfMemory > 0 {
		memCap := uint64(fractionOfMemory * float64(totalMem) / entrySize)
		if memCap < desiredNElems {
			desiredNElems = memCap
		}
	}
	// biggest power of 2 not above desired.
	sizePowerOf2 := minSizePowerOf2
	if desiredNElems > 0 {
		sizePowerOf2 = bits.Len64(desiredNElems) - 1
	}
	if sizePowerOf2 < minSizePowerOf2 {
		sizePowerOf2 = minSizePowerOf2
	}
	numElems := 1 << sizePowerOf2

	log.Debug().Int("num-elems", numElems).
		Uint64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")

	return &TranspositionTable{
		table:        make([]TableEntry, numElems),
		sizePowerOf2: sizePowerOf2,
		sizeMask:     uint64(numElems - 1),
	}
}

func (t *TranspositionTable) lookup(zval uint64, key NodeKey) (TableEntry, bool) {
	t.lookups.Add(1)
	entry := t.table[zval&t.sizeMask]
	if !entry.valid() {
		return TableEntry{}, false
	}
	if entry.key != key {
		t.t2collisions.Add(1)
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return entry, true
}

func (t *TranspositionTable) store(zval uint64, entry TableEntry) {
	// just overwrite whatever is there for now.
	t.table[zval&t.sizeMask] = entry
	t.created.Add(1)
}

// Len is the number of slots.
func (t *TranspositionTable) Len() int {
	return len(t.table)
}

// TableStats is a snapshot of the table counters.
type TableStats struct {
	Created      uint64 `yaml:"created"`
	Lookups      uint64 `yaml:"lookups"`
	Hits         uint64 `yaml:"hits"`
	T2Collisions uint64 `yaml:"t2collisions"`
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
	}
}
