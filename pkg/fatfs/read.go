package fatfs

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/weberc2/fatsim/pkg/math"
	. "github.com/weberc2/fatsim/pkg/types"
)

// Read copies up to `len(p)` bytes of file `name` starting at `offset` into
// `p` and returns the number of bytes copied. Reading at or past the end of
// the file fails with `ErrInvalidOffset`. If the chain is shorter than the
// file's length claims, Read returns what it could reach without an error.
func (fs *FileSystem) Read(name string, p []byte, offset Byte) (Byte, error) {
	entry, err := fs.entry(name)
	if err != nil {
		return 0, fmt.Errorf("reading: %w", err)
	}
	if offset < 0 || offset >= entry.Length {
		return 0, fmt.Errorf(
			"reading file `%s` at offset `%d` (length `%d`): %w",
			name,
			offset,
			entry.Length,
			ErrInvalidOffset,
		)
	}

	readable := math.Min(Byte(len(p)), entry.Length-offset)
	dataStart := fs.dataStart()

	block := entry.First
	for i := Byte(0); i < offset/BlockSize; i++ {
		if !fs.table.InRange(block, dataStart) {
			return 0, nil
		}
		next, err := fs.table.Next(block, dataStart)
		if err != nil {
			fs.warnShortChain(name, err)
			return 0, nil
		}
		block = next
	}

	buf := make([]byte, BlockSize)
	within := offset % BlockSize
	var copied Byte
	for copied < readable {
		if !fs.table.InRange(block, dataStart) {
			break
		}
		fs.readBlock(block, buf)
		copied += Byte(copy(p[copied:readable], buf[within:]))
		within = 0

		if copied < readable {
			next, err := fs.table.Next(block, dataStart)
			if err != nil {
				fs.warnShortChain(name, err)
				break
			}
			block = next
		}
	}
	return copied, nil
}

func (fs *FileSystem) warnShortChain(name string, err error) {
	log.WithField("file", name).Warnf("short read: %v", err)
}
