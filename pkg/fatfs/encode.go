package fatfs

import (
	"encoding/binary"

	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	superblockFieldMagic Byte = iota
	superblockFieldBlockCount
	superblockFieldFATBlockCount
)

const (
	size32 Byte = 4

	MaxNameLength Byte = 6

	dirEntryFieldUsedOffset   Byte = 0
	dirEntryFieldUsedSize     Byte = 1
	dirEntryFieldNameOffset   Byte = dirEntryFieldUsedOffset + dirEntryFieldUsedSize
	dirEntryFieldNameSize     Byte = MaxNameLength + 1 // NUL terminated
	dirEntryFieldLengthOffset Byte = dirEntryFieldNameOffset + dirEntryFieldNameSize
	dirEntryFieldLengthSize   Byte = size32
	dirEntryFieldFirstOffset  Byte = dirEntryFieldLengthOffset + dirEntryFieldLengthSize
	dirEntryFieldFirstSize    Byte = size32

	DirEntrySize      Byte = dirEntryFieldFirstOffset + dirEntryFieldFirstSize
	DirectoryCapacity      = int(BlockSize / DirEntrySize)

	// MaxFileSize is the largest length a 32-bit directory entry can hold.
	MaxFileSize Byte = 1<<32 - 1
)

func EncodeSuperblock(superblock *Superblock, p *[BlockSize]byte) {
	*p = [BlockSize]byte{}
	putU32(p[superblockFieldMagic*size32:], superblock.Magic)
	putBlock(p[superblockFieldBlockCount*size32:], superblock.BlockCount)
	putBlock(
		p[superblockFieldFATBlockCount*size32:],
		superblock.FATBlockCount,
	)
}

func EncodeDirEntry(entry *DirEntry, p *[DirEntrySize]byte) {
	*p = [DirEntrySize]byte{}
	if entry.Used {
		p[dirEntryFieldUsedOffset] = 1
	}
	copy(
		p[dirEntryFieldNameOffset:dirEntryFieldNameOffset+MaxNameLength],
		entry.Name,
	)
	putU32(p[dirEntryFieldLengthOffset:], uint32(entry.Length))
	putBlock(p[dirEntryFieldFirstOffset:], entry.First)
}

func EncodeDirectory(dir *Directory, p *[BlockSize]byte) {
	var entry [DirEntrySize]byte
	for i := range dir {
		EncodeDirEntry(&dir[i], &entry)
		copy(p[Byte(i)*DirEntrySize:], entry[:])
	}
}

func putBlock(p []byte, b Block) {
	putU32(p, uint32(b))
}

func putU32(p []byte, u uint32) {
	binary.LittleEndian.PutUint32(p, u)
}
