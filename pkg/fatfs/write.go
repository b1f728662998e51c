package fatfs

import (
	"errors"
	"fmt"

	"github.com/weberc2/fatsim/pkg/alloc"
	"github.com/weberc2/fatsim/pkg/math"
	. "github.com/weberc2/fatsim/pkg/types"
)

// Write copies `p` into file `name` at `offset`, growing the file's chain as
// needed, and returns the number of bytes written. Writing past the end of
// the file leaves a zero-filled gap. If the volume cannot hold the whole
// write, nothing is allocated and `ErrNoSpace` is returned. If allocation
// fails part way through the data, the bytes already written are kept and
// counted and no error is returned. Any other chain error met along the
// way is returned with the count written so far.
func (fs *FileSystem) Write(name string, p []byte, offset Byte) (Byte, error) {
	entry, err := fs.entry(name)
	if err != nil {
		return 0, fmt.Errorf("writing: %w", err)
	}
	if offset < 0 || offset > MaxFileSize ||
		Byte(len(p)) > MaxFileSize-offset {
		return 0, fmt.Errorf(
			"writing `%d` bytes to file `%s` at offset `%d`: %w",
			len(p),
			name,
			offset,
			ErrInvalidOffset,
		)
	}
	if len(p) == 0 {
		return 0, nil
	}

	dataStart := fs.dataStart()
	have, err := fs.table.ChainLength(entry.First, dataStart)
	if err != nil {
		return 0, fmt.Errorf("writing file `%s`: %w", name, err)
	}
	needed := Block(math.DivRoundUp(offset+Byte(len(p)), BlockSize))
	if needed > Block(have) {
		if free := fs.table.CountFree(dataStart); needed-Block(have) > free {
			return 0, fmt.Errorf(
				"writing file `%s`: need `%d` more blocks; `%d` free: %w",
				name,
				needed-Block(have),
				free,
				ErrNoSpace,
			)
		}
	}

	// every mutation below is persisted on the way out
	defer fs.flush()

	if entry.First == alloc.EOF {
		block, err := fs.allocate()
		if err != nil {
			return 0, fmt.Errorf("writing file `%s`: %w", name, err)
		}
		entry.First = block
	}

	block := entry.First
	for i := Byte(0); i < offset/BlockSize; i++ {
		if block, err = fs.next(block); err != nil {
			return 0, fmt.Errorf("writing file `%s`: %w", name, err)
		}
	}

	written, err := fs.writeChain(block, offset%BlockSize, p)
	entry.Length = math.Max(entry.Length, offset+written)
	if err != nil {
		return written, fmt.Errorf("writing file `%s`: %w", name, err)
	}
	return written, nil
}

// writeChain copies `p` into the chain starting at `within` bytes into
// `block`, extending the chain as it goes. Running out of space ends the
// write early without an error.
func (fs *FileSystem) writeChain(block Block, within Byte, p []byte) (Byte, error) {
	buf := make([]byte, BlockSize)
	var written Byte
	for {
		fs.readBlock(block, buf)
		written += Byte(copy(buf[within:], p[written:]))
		fs.writeBlock(block, buf)
		within = 0

		if written == Byte(len(p)) {
			return written, nil
		}
		var err error
		if block, err = fs.next(block); err != nil {
			if errors.Is(err, ErrNoSpace) {
				return written, nil
			}
			return written, err
		}
	}
}

// next follows the chain from `block`, extending it when it ends.
func (fs *FileSystem) next(block Block) (Block, error) {
	next, err := fs.table.Next(block, fs.dataStart())
	if err != nil {
		return alloc.EOF, err
	}
	if next == alloc.EOF {
		return fs.extend(block)
	}
	return next, nil
}
