package store

import (
	"fmt"

	"github.com/weberc2/fatsim/pkg/alloc"
	"github.com/weberc2/fatsim/pkg/blockstore"
	. "github.com/weberc2/fatsim/pkg/types"
)

var _ alloc.TableStore = BlockStoreTableStore{}

// BlockStoreTableStore persists a FAT to the contiguous run of blocks
// starting at `start`.
type BlockStoreTableStore struct {
	store blockstore.BlockStore
	start Block
}

func NewBlockStoreTableStore(
	store blockstore.BlockStore,
	start Block,
) BlockStoreTableStore {
	return BlockStoreTableStore{store, start}
}

func (s BlockStoreTableStore) Put(table *alloc.Table) error {
	buf := make([]byte, BlockSize)
	for i := Block(0); i < alloc.BlockCount(table.Len()); i++ {
		table.EncodeBlock(i, buf)
		if err := s.store.WriteBlock(s.start+i, buf); err != nil {
			return fmt.Errorf("storing table block `%d`: %w", i, err)
		}
	}
	return nil
}

// Load reads a table covering `blocks` volume blocks.
func (s BlockStoreTableStore) Load(blocks Block) (*alloc.Table, error) {
	table := alloc.New(blocks)
	buf := make([]byte, BlockSize)
	for i := Block(0); i < alloc.BlockCount(blocks); i++ {
		if err := s.store.ReadBlock(s.start+i, buf); err != nil {
			return nil, fmt.Errorf("loading table block `%d`: %w", i, err)
		}
		table.DecodeBlock(i, buf)
	}
	table.MarkClean()
	return table, nil
}
