package types

// Block is the index of a block on a block store.
type Block uint32

// Byte is a count of bytes or a byte offset.
type Byte int64

const (
	// BlockSize is the fixed transfer unit shared by the block store and the
	// filesystem.
	BlockSize Byte = 1024

	// BlockPointerSize is the on-disk size of a FAT entry.
	BlockPointerSize Byte = 4
)
