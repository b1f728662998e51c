// Package blockstore provides fixed-size block devices for the filesystem.
// Every transfer moves exactly one `types.BlockSize` block.
package blockstore

import (
	"fmt"

	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	ErrOutOfRange ConstError = "block index out of range"
	ErrBadBuffer  ConstError = "buffer is not exactly one block"
)

type BlockStore interface {
	// Size returns the total number of blocks on the store.
	Size() Block

	// ReadBlock copies block `block` into `p`.
	ReadBlock(block Block, p []byte) error

	// WriteBlock copies `p` onto block `block`.
	WriteBlock(block Block, p []byte) error
}

var (
	_ BlockStore = (*File)(nil)
	_ BlockStore = (*Memory)(nil)
	_ BlockStore = (*Postgres)(nil)
	_ BlockStore = (*Counting)(nil)
)

func check(size Block, block Block, p []byte) error {
	if block >= size {
		return fmt.Errorf(
			"block `%d` (store has `%d` blocks): %w",
			block,
			size,
			ErrOutOfRange,
		)
	}
	if Byte(len(p)) != BlockSize {
		return fmt.Errorf(
			"block `%d`: buffer of `%d` bytes: %w",
			block,
			len(p),
			ErrBadBuffer,
		)
	}
	return nil
}

// Offset returns the byte offset of `block` on a flat backing store.
func Offset(block Block) int64 {
	return int64(block) * int64(BlockSize)
}
