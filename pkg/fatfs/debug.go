package fatfs

import (
	"fmt"
	"io"
	"strings"

	. "github.com/weberc2/fatsim/pkg/types"
)

// DebugDump describes the on-disk superblock and every file with its size
// and block chain. It reads straight from the block store, so it works on
// mounted and unmounted handles alike.
func (fs *FileSystem) DebugDump(w io.Writer) error {
	var sb strings.Builder
	fs.debugDump(&sb)
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing debug dump: %w", err)
	}
	return nil
}

func (fs *FileSystem) debugDump(sb *strings.Builder) {
	var buf [BlockSize]byte
	fs.readBlock(SuperblockBlock, buf[:])

	sb.WriteString("superblock:\n")
	var superblock Superblock
	if err := DecodeSuperblock(&superblock, &buf); err != nil {
		sb.WriteString("\tmagic is NOT ok\n")
		return
	}
	sb.WriteString("\tmagic is ok\n")
	fmt.Fprintf(sb, "\t%d blocks\n", superblock.BlockCount)
	fmt.Fprintf(sb, "\t%d block fat\n", superblock.FATBlockCount)
	if err := validateSuperblock(&superblock, fs.volume.Size()); err != nil {
		fmt.Fprintf(sb, "\tsuperblock is inconsistent: %v\n", err)
		return
	}

	table, err := fs.tableStore().Load(superblock.BlockCount)
	if err != nil {
		panic(&StorageFault{Op: "loading table from", Block: FATStart, Err: err})
	}
	fs.readBlock(DirectoryBlock, buf[:])
	var dir Directory
	DecodeDirectory(&dir, &buf)

	for _, info := range listDirectory(&dir, table, superblock.DataStart()) {
		fmt.Fprintf(sb, "File %q:\n", info.Name)
		fmt.Fprintf(sb, "\tsize: %d bytes\n", info.Size)
		sb.WriteString("\tBlocks:")
		for _, block := range info.Blocks {
			fmt.Fprintf(sb, " %d", block)
		}
		sb.WriteString("\n")
		if info.ChainErr != nil {
			fmt.Fprintf(sb, "\tchain error: %v\n", info.ChainErr)
		}
	}
	fmt.Fprintf(
		sb,
		"%d of %d data blocks free\n",
		table.CountFree(superblock.DataStart()),
		superblock.BlockCount-superblock.DataStart(),
	)
}
