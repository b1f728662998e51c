package fatfs

import (
	"fmt"

	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

const ErrInconsistent ConstError = "filesystem inconsistent"

// CheckReport tallies every volume block by role. On a consistent volume
// `Free + Reserved + Owned == Blocks`.
type CheckReport struct {
	Blocks   Block
	Reserved Block
	Free     Block
	Owned    Block
	Problems []string
}

// Check verifies the mounted metadata: the reserved region is `Busy`, every
// file's chain reaches `EOF` without leaving the data region or looping, no
// block belongs to two files, and every data block is either free or owned.
// Problems are listed in the report and summarized by an `ErrInconsistent`
// error.
func (fs *FileSystem) Check() (CheckReport, error) {
	if err := fs.requireMounted(); err != nil {
		return CheckReport{}, fmt.Errorf("checking: %w", err)
	}

	dataStart := fs.dataStart()
	report := CheckReport{Blocks: fs.table.Len()}
	problemf := func(format string, v ...interface{}) {
		report.Problems = append(report.Problems, fmt.Sprintf(format, v...))
	}

	for b := Block(0); b < dataStart; b++ {
		if fs.table.Get(b) == alloc.Busy {
			report.Reserved++
		} else {
			problemf("reserved block `%d` is `%d`, not busy", b, fs.table.Get(b))
		}
	}

	owners := make(map[Block]string)
	names := make(map[string]struct{})
	for i := range fs.directory {
		entry := &fs.directory[i]
		if !entry.Used {
			continue
		}
		if _, dup := names[entry.Name]; dup {
			problemf("name `%s` used by more than one entry", entry.Name)
		}
		names[entry.Name] = struct{}{}

		blocks, err := fs.table.Chain(entry.First, dataStart)
		if err != nil {
			problemf("file `%s`: %v", entry.Name, err)
		}
		for _, b := range blocks {
			if owner, taken := owners[b]; taken {
				problemf(
					"block `%d` owned by both `%s` and `%s`",
					b,
					owner,
					entry.Name,
				)
				continue
			}
			owners[b] = entry.Name
			report.Owned++
		}
		if capacity := Byte(len(blocks)) * BlockSize; entry.Length > capacity {
			problemf(
				"file `%s`: length `%d` exceeds chain capacity `%d`",
				entry.Name,
				entry.Length,
				capacity,
			)
		}
	}

	for b := dataStart; b < fs.table.Len(); b++ {
		if fs.table.Get(b) == alloc.Free {
			report.Free++
			continue
		}
		if _, owned := owners[b]; !owned {
			problemf("block `%d` is allocated but unreachable", b)
		}
	}

	if len(report.Problems) > 0 {
		return report, fmt.Errorf(
			"checking: %d problems, first: %s: %w",
			len(report.Problems),
			report.Problems[0],
			ErrInconsistent,
		)
	}
	return report, nil
}
