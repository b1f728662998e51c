// Package fatfs implements a small FAT filesystem over a block store: a
// superblock, a single-block directory of up to 64 files with names of at
// most six characters, and a file allocation table chaining each file's
// data blocks.
//
// A FileSystem must be mounted before any file operation. It is not safe
// for concurrent use. Failures of the underlying block store are not
// returned as errors; they panic with a *StorageFault.
package fatfs

import (
	"github.com/weberc2/fatsim/pkg/alloc"
	"github.com/weberc2/fatsim/pkg/alloc/store"
	"github.com/weberc2/fatsim/pkg/blockstore"
	. "github.com/weberc2/fatsim/pkg/types"
)

type FileSystem struct {
	volume     blockstore.BlockStore
	superblock Superblock
	directory  Directory
	table      *alloc.Table
	mounted    bool
}

func New(volume blockstore.BlockStore) *FileSystem {
	return &FileSystem{volume: volume}
}

func (fs *FileSystem) Mounted() bool { return fs.mounted }

// Superblock returns the mounted superblock.
func (fs *FileSystem) Superblock() Superblock { return fs.superblock }

func (fs *FileSystem) dataStart() Block { return fs.superblock.DataStart() }

func (fs *FileSystem) requireMounted() error {
	if !fs.mounted {
		return ErrNotMounted
	}
	return nil
}

func (fs *FileSystem) tableStore() store.BlockStoreTableStore {
	return store.NewBlockStoreTableStore(fs.volume, FATStart)
}

func (fs *FileSystem) flushTable() {
	if err := fs.table.Flush(fs.tableStore()); err != nil {
		panic(&StorageFault{Op: "flushing table to", Block: FATStart, Err: err})
	}
}

func (fs *FileSystem) flushDirectory() {
	var buf [BlockSize]byte
	EncodeDirectory(&fs.directory, &buf)
	fs.writeBlock(DirectoryBlock, buf[:])
}

// flush persists the FAT and then the directory.
func (fs *FileSystem) flush() {
	fs.flushTable()
	fs.flushDirectory()
}

// zeroBlock clears a newly allocated block so stale bytes from a previous
// owner never become readable.
func (fs *FileSystem) zeroBlock(block Block) {
	fs.writeBlock(block, make([]byte, BlockSize))
}

func (fs *FileSystem) allocate() (Block, error) {
	block, err := fs.table.AllocateOne(fs.dataStart())
	if err != nil {
		return alloc.EOF, err
	}
	fs.zeroBlock(block)
	return block, nil
}

func (fs *FileSystem) extend(tail Block) (Block, error) {
	block, err := fs.table.Extend(tail, fs.dataStart())
	if err != nil {
		return alloc.EOF, err
	}
	fs.zeroBlock(block)
	return block, nil
}
