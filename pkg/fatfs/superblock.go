package fatfs

import (
	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	SuperblockMagic uint32 = 0xAC0010DE

	SuperblockBlock Block = 0
	DirectoryBlock  Block = 1
	FATStart        Block = 2
)

type Superblock struct {
	Magic         uint32
	BlockCount    Block
	FATBlockCount Block
}

func NewSuperblock(blocks Block) Superblock {
	return Superblock{
		Magic:         SuperblockMagic,
		BlockCount:    blocks,
		FATBlockCount: alloc.BlockCount(blocks),
	}
}

// DataStart is the first block available to file data. Everything below it
// is filesystem metadata.
func (superblock *Superblock) DataStart() Block {
	return DataStart(superblock.FATBlockCount)
}

func DataStart(fatBlocks Block) Block {
	return FATStart + fatBlocks
}
