package fatfs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	. "github.com/weberc2/fatsim/pkg/types"
)

func DecodeSuperblock(superblock *Superblock, p *[BlockSize]byte) error {
	if magic := getU32(
		p[superblockFieldMagic*size32:],
	); magic != SuperblockMagic {
		return fmt.Errorf(
			"decoding superblock: decoded magic `%#x`: %w",
			magic,
			ErrInvalidFormat,
		)
	}
	*superblock = Superblock{
		Magic:         SuperblockMagic,
		BlockCount:    getBlock(p[superblockFieldBlockCount*size32:]),
		FATBlockCount: getBlock(p[superblockFieldFATBlockCount*size32:]),
	}
	return nil
}

func DecodeDirEntry(entry *DirEntry, p *[DirEntrySize]byte) {
	name := p[dirEntryFieldNameOffset : dirEntryFieldNameOffset+MaxNameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	*entry = DirEntry{
		Used:   p[dirEntryFieldUsedOffset] != 0,
		Name:   string(name),
		Length: Byte(getU32(p[dirEntryFieldLengthOffset:])),
		First:  getBlock(p[dirEntryFieldFirstOffset:]),
	}
}

func DecodeDirectory(dir *Directory, p *[BlockSize]byte) {
	var entry [DirEntrySize]byte
	for i := range dir {
		copy(entry[:], p[Byte(i)*DirEntrySize:])
		DecodeDirEntry(&dir[i], &entry)
	}
}

func getBlock(p []byte) Block {
	return Block(getU32(p))
}

func getU32(p []byte) uint32 {
	return binary.LittleEndian.Uint32(p)
}
