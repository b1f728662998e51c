package fatfs

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

// Format writes an empty filesystem sized to the whole block store. Any
// previous contents are discarded. The handle stays unmounted.
func (fs *FileSystem) Format() error {
	if fs.mounted {
		return fmt.Errorf("formatting: %w", ErrAlreadyMounted)
	}

	blocks := fs.volume.Size()
	superblock := NewSuperblock(blocks)
	if superblock.DataStart() >= blocks {
		return fmt.Errorf(
			"formatting: `%d` blocks leave no room for data after `%d` "+
				"metadata blocks: %w",
			blocks,
			superblock.DataStart(),
			ErrInvalidFormat,
		)
	}

	var buf [BlockSize]byte
	EncodeSuperblock(&superblock, &buf)
	fs.writeBlock(SuperblockBlock, buf[:])

	var dir Directory
	EncodeDirectory(&dir, &buf)
	fs.writeBlock(DirectoryBlock, buf[:])

	table := alloc.New(blocks)
	table.Reset()
	table.Reserve(superblock.DataStart())
	if err := table.Flush(fs.tableStore()); err != nil {
		panic(&StorageFault{Op: "flushing table to", Block: FATStart, Err: err})
	}

	log.WithFields(log.Fields{
		"blocks":    blocks,
		"fatBlocks": superblock.FATBlockCount,
		"dataStart": superblock.DataStart(),
	}).Debug("formatted volume")
	return nil
}

// Mount validates the superblock and loads the FAT and directory into
// memory. A mounted handle stays mounted for the rest of its life.
func (fs *FileSystem) Mount() error {
	if fs.mounted {
		return fmt.Errorf("mounting: %w", ErrAlreadyMounted)
	}

	var buf [BlockSize]byte
	fs.readBlock(SuperblockBlock, buf[:])

	var superblock Superblock
	if err := DecodeSuperblock(&superblock, &buf); err != nil {
		return fmt.Errorf("mounting: %w", err)
	}
	if err := validateSuperblock(&superblock, fs.volume.Size()); err != nil {
		return fmt.Errorf("mounting: %w", err)
	}

	table, err := fs.tableStore().Load(superblock.BlockCount)
	if err != nil {
		panic(&StorageFault{Op: "loading table from", Block: FATStart, Err: err})
	}

	fs.readBlock(DirectoryBlock, buf[:])
	DecodeDirectory(&fs.directory, &buf)

	fs.superblock = superblock
	fs.table = table
	fs.mounted = true
	return nil
}

func validateSuperblock(superblock *Superblock, storeBlocks Block) error {
	if superblock.BlockCount > storeBlocks {
		return fmt.Errorf(
			"superblock claims `%d` blocks but the store holds `%d`: %w",
			superblock.BlockCount,
			storeBlocks,
			ErrInvalidFormat,
		)
	}
	if wanted := alloc.BlockCount(
		superblock.BlockCount,
	); superblock.FATBlockCount != wanted {
		return fmt.Errorf(
			"superblock claims `%d` FAT blocks for `%d` blocks; wanted `%d`: %w",
			superblock.FATBlockCount,
			superblock.BlockCount,
			wanted,
			ErrInvalidFormat,
		)
	}
	if superblock.DataStart() >= superblock.BlockCount {
		return fmt.Errorf(
			"superblock leaves no data blocks: %w",
			ErrInvalidFormat,
		)
	}
	return nil
}
