package blockstore

import (
	"fmt"

	. "github.com/weberc2/fatsim/pkg/types"
)

// Memory is a block store backed by a byte slice. Used by tests.
type Memory struct {
	data []byte
}

func NewMemory(blocks Block) *Memory {
	return &Memory{data: make([]byte, Offset(blocks))}
}

func (m *Memory) Size() Block { return Block(Byte(len(m.data)) / BlockSize) }

func (m *Memory) ReadBlock(block Block, p []byte) error {
	if err := check(m.Size(), block, p); err != nil {
		return fmt.Errorf("reading from memory: %w", err)
	}
	copy(p, m.data[Offset(block):])
	return nil
}

func (m *Memory) WriteBlock(block Block, p []byte) error {
	if err := check(m.Size(), block, p); err != nil {
		return fmt.Errorf("writing to memory: %w", err)
	}
	copy(m.data[Offset(block):], p)
	return nil
}

// Bytes exposes the backing slice so tests can inspect or corrupt raw
// on-disk state.
func (m *Memory) Bytes() []byte { return m.data }
