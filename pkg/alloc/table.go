// Package alloc manages the file allocation table: one next-pointer per
// volume block, with sentinels for free, end-of-chain and reserved blocks.
package alloc

import (
	"encoding/binary"

	"github.com/weberc2/fatsim/pkg/math"
	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	Free Block = 0
	EOF  Block = 1
	Busy Block = 2
)

const (
	ErrNoSpace         ConstError = "no free data blocks"
	ErrChainCorruption ConstError = "block chain corrupted"
)

const entriesPerBlock = Block(BlockSize / BlockPointerSize)

// Table is the in-memory copy of the FAT. It is sized from the volume's
// block count at format or mount time.
type Table struct {
	entries []Block
	dirty   bool
}

// New returns a table with `blocks` entries, all `Free`.
func New(blocks Block) *Table {
	return &Table{entries: make([]Block, blocks)}
}

// BlockCount returns the number of blocks needed to store a FAT covering
// `blocks` volume blocks.
func BlockCount(blocks Block) Block {
	return Block(math.DivRoundUp(Byte(blocks)*BlockPointerSize, BlockSize))
}

func (t *Table) Len() Block { return Block(len(t.entries)) }

func (t *Table) Get(b Block) Block { return t.entries[b] }

func (t *Table) Set(b, next Block) {
	t.entries[b] = next
	t.dirty = true
}

func (t *Table) Dirty() bool { return t.dirty }

// Reset marks every entry `Free`.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = Free
	}
	t.dirty = true
}

// Reserve marks `[0, dataStart)` as `Busy`.
func (t *Table) Reserve(dataStart Block) {
	for i := Block(0); i < dataStart && i < t.Len(); i++ {
		t.entries[i] = Busy
	}
	t.dirty = true
}

func (t *Table) CountFree(dataStart Block) Block {
	var free Block
	for i := dataStart; i < t.Len(); i++ {
		if t.entries[i] == Free {
			free++
		}
	}
	return free
}

// EncodeBlock writes the `i`th FAT block into `p`. Entries past the end of
// the table encode as zero.
func (t *Table) EncodeBlock(i Block, p []byte) {
	start := i * entriesPerBlock
	for j := Block(0); j < entriesPerBlock; j++ {
		var value Block
		if start+j < t.Len() {
			value = t.entries[start+j]
		}
		binary.LittleEndian.PutUint32(
			p[Byte(j)*BlockPointerSize:],
			uint32(value),
		)
	}
}

// DecodeBlock loads the `i`th FAT block from `p`.
func (t *Table) DecodeBlock(i Block, p []byte) {
	start := i * entriesPerBlock
	for j := Block(0); j < entriesPerBlock && start+j < t.Len(); j++ {
		t.entries[start+j] = Block(binary.LittleEndian.Uint32(
			p[Byte(j)*BlockPointerSize:],
		))
	}
}

type TableStore interface {
	Put(*Table) error
}

// Flush hands the table to `store` if it changed since the last flush.
func (t *Table) Flush(store TableStore) error {
	if !t.dirty {
		return nil
	}
	if err := store.Put(t); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// MarkClean clears the dirty flag after the table was loaded from disk.
func (t *Table) MarkClean() { t.dirty = false }
