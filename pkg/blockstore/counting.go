package blockstore

import (
	"io"

	log "github.com/sirupsen/logrus"

	. "github.com/weberc2/fatsim/pkg/types"
)

// Counting decorates a block store with read and write counters.
type Counting struct {
	BlockStore
	Reads  uint64
	Writes uint64
}

func NewCounting(inner BlockStore) *Counting {
	return &Counting{BlockStore: inner}
}

func (c *Counting) ReadBlock(block Block, p []byte) error {
	if err := c.BlockStore.ReadBlock(block, p); err != nil {
		return err
	}
	c.Reads++
	return nil
}

func (c *Counting) WriteBlock(block Block, p []byte) error {
	if err := c.BlockStore.WriteBlock(block, p); err != nil {
		return err
	}
	c.Writes++
	return nil
}

type syncer interface {
	Sync() error
}

// Close logs the transfer counters, then syncs and closes the wrapped store
// if it supports either.
func (c *Counting) Close() error {
	log.WithFields(log.Fields{
		"reads":  c.Reads,
		"writes": c.Writes,
		"blocks": c.Size(),
	}).Info("closing block store")
	if syncer, ok := c.BlockStore.(syncer); ok {
		if err := syncer.Sync(); err != nil {
			return err
		}
	}
	if closer, ok := c.BlockStore.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
