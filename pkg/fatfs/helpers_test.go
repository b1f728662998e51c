package fatfs

import (
	"bytes"
	"testing"

	"github.com/weberc2/fatsim/pkg/blockstore"
	. "github.com/weberc2/fatsim/pkg/types"
)

// newMounted formats a fresh memory volume of `blocks` blocks and mounts it.
func newMounted(t *testing.T, blocks Block) (*FileSystem, *blockstore.Memory) {
	t.Helper()
	volume := blockstore.NewMemory(blocks)
	fs := New(volume)
	if err := fs.Format(); err != nil {
		t.Fatalf("Format(): unexpected err: %v", err)
	}
	if err := fs.Mount(); err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}
	return fs, volume
}

func mustCreate(t *testing.T, fs *FileSystem, name string) {
	t.Helper()
	if err := fs.Create(name); err != nil {
		t.Fatalf("Create(%q): unexpected err: %v", name, err)
	}
}

func mustWrite(t *testing.T, fs *FileSystem, name string, p []byte, offset Byte) {
	t.Helper()
	n, err := fs.Write(name, p, offset)
	if err != nil {
		t.Fatalf("Write(%q): unexpected err: %v", name, err)
	}
	if n != Byte(len(p)) {
		t.Fatalf("Write(%q): wanted `%d`; found `%d`", name, len(p), n)
	}
}

func mustRead(t *testing.T, fs *FileSystem, name string, length, offset Byte) []byte {
	t.Helper()
	p := make([]byte, length)
	n, err := fs.Read(name, p, offset)
	if err != nil {
		t.Fatalf("Read(%q): unexpected err: %v", name, err)
	}
	return p[:n]
}

func mustCheck(t *testing.T, fs *FileSystem) CheckReport {
	t.Helper()
	report, err := fs.Check()
	if err != nil {
		t.Fatalf("Check(): unexpected err: %v (%v)", err, report.Problems)
	}
	if sum := report.Free + report.Reserved + report.Owned; sum != report.Blocks {
		t.Fatalf(
			"Check(): free `%d` + reserved `%d` + owned `%d` = `%d`; "+
				"wanted `%d`",
			report.Free,
			report.Reserved,
			report.Owned,
			sum,
			report.Blocks,
		)
	}
	return report
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + i/251)
	}
	return p
}

func assertBytes(t *testing.T, context string, wanted, found []byte) {
	t.Helper()
	if bytes.Equal(wanted, found) {
		return
	}
	if len(wanted) != len(found) {
		t.Fatalf(
			"%s: wanted `%d` bytes; found `%d`",
			context,
			len(wanted),
			len(found),
		)
	}
	for i := range wanted {
		if wanted[i] != found[i] {
			t.Fatalf(
				"%s: byte `%d`: wanted `%#x`; found `%#x`",
				context,
				i,
				wanted[i],
				found[i],
			)
		}
	}
}
