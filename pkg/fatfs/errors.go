package fatfs

import (
	"fmt"

	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

const (
	ErrAlreadyMounted ConstError = "filesystem already mounted"
	ErrNotMounted     ConstError = "filesystem not mounted"
	ErrInvalidFormat  ConstError = "invalid filesystem format"
	ErrInvalidName    ConstError = "invalid file name"
	ErrAlreadyExists  ConstError = "file already exists"
	ErrNotFound       ConstError = "file not found"
	ErrDirectoryFull  ConstError = "directory full"
	ErrInvalidOffset  ConstError = "invalid offset"

	ErrNoSpace         = alloc.ErrNoSpace
	ErrChainCorruption = alloc.ErrChainCorruption
)

// StorageFault is the panic value raised when the block store rejects a
// transfer. The filesystem cannot continue past one.
type StorageFault struct {
	Op    string
	Block Block
	Err   error
}

func (fault *StorageFault) Error() string {
	return fmt.Sprintf(
		"storage fault: %s block `%d`: %v",
		fault.Op,
		fault.Block,
		fault.Err,
	)
}

func (fault *StorageFault) Unwrap() error { return fault.Err }

func (fs *FileSystem) readBlock(block Block, p []byte) {
	if err := fs.volume.ReadBlock(block, p); err != nil {
		panic(&StorageFault{Op: "reading", Block: block, Err: err})
	}
}

func (fs *FileSystem) writeBlock(block Block, p []byte) {
	if err := fs.volume.WriteBlock(block, p); err != nil {
		panic(&StorageFault{Op: "writing", Block: block, Err: err})
	}
}
