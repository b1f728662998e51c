package alloc

import (
	"fmt"

	. "github.com/weberc2/fatsim/pkg/types"
)

// AllocateOne marks the lowest `Free` block at or above `dataStart` as `EOF`
// and returns it.
func (t *Table) AllocateOne(dataStart Block) (Block, error) {
	for i := dataStart; i < t.Len(); i++ {
		if t.entries[i] == Free {
			t.Set(i, EOF)
			return i, nil
		}
	}
	return EOF, ErrNoSpace
}

// Extend allocates a block and links it after `tail`.
func (t *Table) Extend(tail, dataStart Block) (Block, error) {
	if !t.InRange(tail, dataStart) {
		return EOF, corruption(tail, tail)
	}
	b, err := t.AllocateOne(dataStart)
	if err != nil {
		return EOF, err
	}
	t.Set(tail, b)
	return b, nil
}

// Next returns the block following `b`, or `EOF`. A link that leaves the
// data region is reported as `ErrChainCorruption`.
func (t *Table) Next(b, dataStart Block) (Block, error) {
	next := t.entries[b]
	if next == EOF || t.InRange(next, dataStart) {
		return next, nil
	}
	return EOF, corruption(b, next)
}

// FreeChain releases every block on the chain starting at `head` and
// returns how many were released. On corruption the blocks visited so far
// stay released.
func (t *Table) FreeChain(head, dataStart Block) (int, error) {
	freed := 0
	err := t.walk(head, dataStart, func(b Block) {
		t.Set(b, Free)
		freed++
	})
	return freed, err
}

// Chain returns the blocks of the chain starting at `head`, in order. The
// blocks collected before a corrupt link are returned alongside the error.
func (t *Table) Chain(head, dataStart Block) ([]Block, error) {
	var blocks []Block
	err := t.walk(head, dataStart, func(b Block) {
		blocks = append(blocks, b)
	})
	return blocks, err
}

func (t *Table) ChainLength(head, dataStart Block) (int, error) {
	length := 0
	err := t.walk(head, dataStart, func(Block) { length++ })
	return length, err
}

// walk visits each block of a chain. The next pointer is read before `visit`
// is called, so `visit` may overwrite the entry. The walk gives up after
// `Len()` hops.
func (t *Table) walk(head, dataStart Block, visit func(Block)) error {
	if head == EOF {
		return nil
	}
	if !t.InRange(head, dataStart) {
		return corruption(head, head)
	}

	current := head
	for hops := Block(0); hops < t.Len(); hops++ {
		next := t.entries[current]
		if next == Free {
			// chains never pass through free blocks
			return corruption(current, next)
		}
		visit(current)
		if next == EOF {
			return nil
		}
		if !t.InRange(next, dataStart) {
			return corruption(current, next)
		}
		current = next
	}
	return fmt.Errorf(
		"chain from block `%d` exceeds `%d` hops: %w",
		head,
		t.Len(),
		ErrChainCorruption,
	)
}

// InRange reports whether `b` is a data block, i.e. a legal chain member.
func (t *Table) InRange(b, dataStart Block) bool {
	return b >= dataStart && b < t.Len()
}

func corruption(from, to Block) error {
	return fmt.Errorf(
		"block `%d` links to `%d`: %w",
		from,
		to,
		ErrChainCorruption,
	)
}
