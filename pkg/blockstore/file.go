package blockstore

import (
	"fmt"
	"os"

	. "github.com/weberc2/fatsim/pkg/types"
)

// File is a block store backed by a regular host file.
type File struct {
	f      *os.File
	blocks Block
}

// OpenFile opens the file at `path` if it exists or creates it otherwise,
// then sizes it to hold exactly `blocks` blocks.
func OpenFile(path string, blocks Block) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening block store `%s`: %w", path, err)
	}

	if err := f.Truncate(Offset(blocks)); err != nil {
		f.Close()
		return nil, fmt.Errorf(
			"opening block store `%s`: sizing to `%d` blocks: %w",
			path,
			blocks,
			err,
		)
	}

	return &File{f: f, blocks: blocks}, nil
}

func (store *File) Size() Block { return store.blocks }

func (store *File) Name() string { return store.f.Name() }

func (store *File) ReadBlock(block Block, p []byte) error {
	if err := check(store.blocks, block, p); err != nil {
		return fmt.Errorf("reading from `%s`: %w", store.f.Name(), err)
	}
	if _, err := store.f.ReadAt(p, Offset(block)); err != nil {
		return fmt.Errorf(
			"reading block `%d` from `%s`: %w",
			block,
			store.f.Name(),
			err,
		)
	}
	return nil
}

func (store *File) WriteBlock(block Block, p []byte) error {
	if err := check(store.blocks, block, p); err != nil {
		return fmt.Errorf("writing to `%s`: %w", store.f.Name(), err)
	}
	if _, err := store.f.WriteAt(p, Offset(block)); err != nil {
		return fmt.Errorf(
			"writing block `%d` to `%s`: %w",
			block,
			store.f.Name(),
			err,
		)
	}
	return nil
}

func (store *File) Sync() error {
	if err := store.f.Sync(); err != nil {
		return fmt.Errorf("syncing `%s`: %w", store.f.Name(), err)
	}
	return nil
}

func (store *File) Close() error {
	if err := store.f.Close(); err != nil {
		return fmt.Errorf("closing `%s`: %w", store.f.Name(), err)
	}
	return nil
}
