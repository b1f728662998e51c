package blockstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/weberc2/fatsim/pkg/types"
)

func block(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, int(BlockSize))
}

func testRoundTrip(t *testing.T, store BlockStore) {
	for i := Block(0); i < store.Size(); i++ {
		if err := store.WriteBlock(i, block(byte(i+1))); err != nil {
			t.Fatalf("WriteBlock(%d): unexpected err: %v", i, err)
		}
	}

	found := make([]byte, BlockSize)
	for i := Block(0); i < store.Size(); i++ {
		if err := store.ReadBlock(i, found); err != nil {
			t.Fatalf("ReadBlock(%d): unexpected err: %v", i, err)
		}
		if wanted := block(byte(i + 1)); !bytes.Equal(wanted, found) {
			t.Fatalf(
				"ReadBlock(%d): wanted `%#x...`; found `%#x...`",
				i,
				wanted[:4],
				found[:4],
			)
		}
	}
}

func testBounds(t *testing.T, store BlockStore) {
	for _, testCase := range []struct {
		name   string
		block  Block
		buf    []byte
		wanted error
	}{
		{
			name:   "past-end",
			block:  store.Size(),
			buf:    make([]byte, BlockSize),
			wanted: ErrOutOfRange,
		},
		{
			name:   "nil-buffer",
			block:  0,
			buf:    nil,
			wanted: ErrBadBuffer,
		},
		{
			name:   "short-buffer",
			block:  0,
			buf:    make([]byte, BlockSize-1),
			wanted: ErrBadBuffer,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if err := store.ReadBlock(
				testCase.block,
				testCase.buf,
			); !errors.Is(err, testCase.wanted) {
				t.Fatalf(
					"ReadBlock(): wanted `%v`; found `%v`",
					testCase.wanted,
					err,
				)
			}
			if err := store.WriteBlock(
				testCase.block,
				testCase.buf,
			); !errors.Is(err, testCase.wanted) {
				t.Fatalf(
					"WriteBlock(): wanted `%v`; found `%v`",
					testCase.wanted,
					err,
				)
			}
		})
	}
}

func TestMemory(t *testing.T) {
	store := NewMemory(8)
	if store.Size() != 8 {
		t.Fatalf("Size(): wanted `8`; found `%d`", store.Size())
	}
	testRoundTrip(t, store)
	testBounds(t, store)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	store, err := OpenFile(path, 8)
	if err != nil {
		t.Fatalf("OpenFile(): unexpected err: %v", err)
	}
	testRoundTrip(t, store)
	testBounds(t, store)
	if err := store.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	// reopening an existing image preserves its contents
	reopened, err := OpenFile(path, 8)
	if err != nil {
		t.Fatalf("OpenFile() (reopen): unexpected err: %v", err)
	}
	defer reopened.Close()

	found := make([]byte, BlockSize)
	if err := reopened.ReadBlock(7, found); err != nil {
		t.Fatalf("ReadBlock(): unexpected err: %v", err)
	}
	if wanted := block(8); !bytes.Equal(wanted, found) {
		t.Fatalf("ReadBlock(): wanted `%#x...`; found `%#x...`", wanted[:4], found[:4])
	}
}

func TestFile_SizesNewFile(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "disk.img"), 16)
	if err != nil {
		t.Fatalf("OpenFile(): unexpected err: %v", err)
	}
	defer store.Close()

	found := make([]byte, BlockSize)
	if err := store.ReadBlock(15, found); err != nil {
		t.Fatalf("ReadBlock(15): unexpected err: %v", err)
	}
	if !bytes.Equal(found, make([]byte, BlockSize)) {
		t.Fatal("ReadBlock(15): wanted zeros in a freshly sized image")
	}
}

func TestCounting(t *testing.T) {
	store := NewCounting(NewMemory(4))
	buf := make([]byte, BlockSize)
	for i := 0; i < 3; i++ {
		if err := store.WriteBlock(1, buf); err != nil {
			t.Fatalf("WriteBlock(): unexpected err: %v", err)
		}
	}
	if err := store.ReadBlock(2, buf); err != nil {
		t.Fatalf("ReadBlock(): unexpected err: %v", err)
	}

	// failed transfers are not counted
	_ = store.ReadBlock(4, buf)

	if store.Writes != 3 {
		t.Fatalf("Writes: wanted `3`; found `%d`", store.Writes)
	}
	if store.Reads != 1 {
		t.Fatalf("Reads: wanted `1`; found `%d`", store.Reads)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}
}

type syncCloseRecorder struct {
	*Memory
	calls []string
}

func (r *syncCloseRecorder) Sync() error {
	r.calls = append(r.calls, "sync")
	return nil
}

func (r *syncCloseRecorder) Close() error {
	r.calls = append(r.calls, "close")
	return nil
}

func TestCounting_CloseSyncsFirst(t *testing.T) {
	inner := &syncCloseRecorder{Memory: NewMemory(2)}
	if err := NewCounting(inner).Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}
	if calls := strings.Join(inner.calls, ","); calls != "sync,close" {
		t.Fatalf("Close(): wanted `sync,close`; found `%s`", calls)
	}
}

func TestCounting_FileSyncsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	file, err := OpenFile(path, 4)
	if err != nil {
		t.Fatalf("OpenFile(): unexpected err: %v", err)
	}
	store := NewCounting(file)
	buf := bytes.Repeat([]byte{0x5A}, int(BlockSize))
	if err := store.WriteBlock(3, buf); err != nil {
		t.Fatalf("WriteBlock(): unexpected err: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading image: %v", err)
	}
	if !bytes.Equal(data[3*BlockSize:], buf) {
		t.Fatal("Close(): wanted block `3` on disk after close")
	}
}
