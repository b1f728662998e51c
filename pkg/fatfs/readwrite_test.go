package fatfs

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

func TestWriteRead_Scenario(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")

	data := pattern(2000)
	mustWrite(t, fs, "a", data, 0)

	files, _ := fs.List()
	if wanted := []Block{3, 4}; !reflect.DeepEqual(wanted, files[0].Blocks) {
		t.Fatalf("Blocks: wanted `%v`; found `%v`", wanted, files[0].Blocks)
	}
	if size, _ := fs.GetSize("a"); size != 2000 {
		t.Fatalf("GetSize(): wanted `2000`; found `%d`", size)
	}
	assertBytes(t, "Read()", data, mustRead(t, fs, "a", 2000, 0))
	mustCheck(t, fs)

	if err := fs.Delete("a"); err != nil {
		t.Fatalf("Delete(): unexpected err: %v", err)
	}
	if free := fs.table.CountFree(3); free != 13 {
		t.Fatalf("CountFree(): wanted `13`; found `%d`", free)
	}
}

func TestRead(t *testing.T) {
	fs, _ := newMounted(t, 32)
	mustCreate(t, fs, "a")
	data := pattern(5000)
	mustWrite(t, fs, "a", data, 0)

	for _, testCase := range []struct {
		name   string
		length Byte
		offset Byte
		wanted []byte
	}{
		{"whole", 5000, 0, data},
		{"past-end-truncated", 10000, 0, data},
		{"middle", 100, 1500, data[1500:1600]},
		{"block-aligned", 1024, 2048, data[2048:3072]},
		{"spans-blocks", 2000, 1000, data[1000:3000]},
		{"tail", 100, 4990, data[4990:]},
		{"last-byte", 1, 4999, data[4999:]},
		{"empty-buffer", 0, 10, []byte{}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			assertBytes(
				t,
				"Read()",
				testCase.wanted,
				mustRead(t, fs, "a", testCase.length, testCase.offset),
			)
		})
	}
}

func TestRead_InvalidOffset(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	buf := make([]byte, 10)

	// an empty file has no readable offset
	if _, err := fs.Read("a", buf, 0); !errors.Is(err, ErrInvalidOffset) {
		t.Fatalf("Read(): wanted `%v`; found `%v`", ErrInvalidOffset, err)
	}

	mustWrite(t, fs, "a", pattern(100), 0)
	for _, offset := range []Byte{100, 101, 5000, -1} {
		if n, err := fs.Read("a", buf, offset); !errors.Is(
			err,
			ErrInvalidOffset,
		) || n != 0 {
			t.Fatalf(
				"Read(offset=%d): wanted `0`, `%v`; found `%d`, `%v`",
				offset,
				ErrInvalidOffset,
				n,
				err,
			)
		}
	}
	if _, err := fs.Read("b", buf, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read(): wanted `%v`; found `%v`", ErrNotFound, err)
	}
}

func TestWrite_ZeroLength(t *testing.T) {
	fs, volume := newMounted(t, 16)
	mustCreate(t, fs, "a")
	mustWrite(t, fs, "a", pattern(10), 0)
	before := append([]byte(nil), volume.Bytes()...)

	for _, offset := range []Byte{0, 10, 5000} {
		n, err := fs.Write("a", nil, offset)
		if err != nil || n != 0 {
			t.Fatalf(
				"Write(offset=%d): wanted `0`, `nil`; found `%d`, `%v`",
				offset,
				n,
				err,
			)
		}
	}
	if size, _ := fs.GetSize("a"); size != 10 {
		t.Fatalf("GetSize(): wanted `10`; found `%d`", size)
	}
	if !bytes.Equal(before, volume.Bytes()) {
		t.Fatal("Write(): zero-length write modified the volume")
	}
}

func TestWrite_InvalidOffset(t *testing.T) {
	const maxOffset Byte = 1<<63 - 1
	for _, testCase := range []struct {
		name   string
		offset Byte
		length int
	}{
		{name: "negative", offset: -1, length: 1},
		{name: "at max file size", offset: MaxFileSize, length: 1},
		{name: "ends past max file size", offset: MaxFileSize - 1023, length: 2048},
		{name: "sum overflows", offset: maxOffset - 1023, length: 2048},
		{name: "max offset", offset: maxOffset, length: 1},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			fs, _ := newMounted(t, 16)
			mustCreate(t, fs, "a")
			before := fs.table.CountFree(fs.dataStart())

			n, err := fs.Write("a", make([]byte, testCase.length), testCase.offset)
			if !errors.Is(err, ErrInvalidOffset) || n != 0 {
				t.Fatalf(
					"Write(): wanted `0`, `%v`; found `%d`, `%v`",
					ErrInvalidOffset,
					n,
					err,
				)
			}
			if after := fs.table.CountFree(fs.dataStart()); after != before {
				t.Fatalf("CountFree(): wanted `%d`; found `%d`", before, after)
			}
			if size, _ := fs.GetSize("a"); size != 0 {
				t.Fatalf("GetSize(): wanted `0`; found `%d`", size)
			}
		})
	}

	fs, _ := newMounted(t, 16)
	if _, err := fs.Write("b", []byte("x"), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Write(): wanted `%v`; found `%v`", ErrNotFound, err)
	}
}

func TestWrite_ChainBreaksMidWrite(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	mustWrite(t, fs, "a", pattern(2*int(BlockSize)), 0)

	entry, err := fs.entry("a")
	if err != nil {
		t.Fatalf("entry(): unexpected err: %v", err)
	}
	blocks, err := fs.table.Chain(entry.First, fs.dataStart())
	if err != nil || len(blocks) != 2 {
		t.Fatalf("Chain(): wanted 2 blocks; found `%v`, `%v`", blocks, err)
	}
	// point the tail past the end of the volume
	fs.table.Set(blocks[1], 999)

	written, err := fs.writeChain(entry.First, 0, pattern(3*int(BlockSize)))
	if !errors.Is(err, ErrChainCorruption) {
		t.Fatalf("writeChain(): wanted `%v`; found `%v`", ErrChainCorruption, err)
	}
	if written != 2*BlockSize {
		t.Fatalf("writeChain(): wanted `%d`; found `%d`", 2*BlockSize, written)
	}
}

func TestWrite_ShortWhenSpaceRunsOut(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	entry, err := fs.entry("a")
	if err != nil {
		t.Fatalf("entry(): unexpected err: %v", err)
	}
	// mark every other data block as in use so the chain cannot grow
	for b := fs.dataStart(); b < fs.table.Len(); b++ {
		if b != entry.First {
			fs.table.Set(b, alloc.EOF)
		}
	}

	written, err := fs.writeChain(entry.First, 0, pattern(2*int(BlockSize)))
	if err != nil {
		t.Fatalf("writeChain(): unexpected err: %v", err)
	}
	if written != BlockSize {
		t.Fatalf("writeChain(): wanted `%d`; found `%d`", BlockSize, written)
	}
}

func TestWrite_Sparse(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	mustWrite(t, fs, "a", []byte("tail"), 3000)

	if size, _ := fs.GetSize("a"); size != 3004 {
		t.Fatalf("GetSize(): wanted `3004`; found `%d`", size)
	}
	wanted := append(make([]byte, 3000), "tail"...)
	assertBytes(t, "Read()", wanted, mustRead(t, fs, "a", 3004, 0))
	assertBytes(t, "Read()", []byte("tail"), mustRead(t, fs, "a", 4, 3000))
	mustCheck(t, fs)
}

func TestWrite_GapIsZeroedAfterReuse(t *testing.T) {
	fs, _ := newMounted(t, 16)

	// leave recognizable bytes in blocks that are then released
	mustCreate(t, fs, "old")
	mustWrite(t, fs, "old", bytes.Repeat([]byte{0xAA}, 4000), 0)
	if err := fs.Delete("old"); err != nil {
		t.Fatalf("Delete(): unexpected err: %v", err)
	}

	mustCreate(t, fs, "new")
	mustWrite(t, fs, "new", []byte("z"), 3500)
	wanted := append(make([]byte, 3500), 'z')
	assertBytes(t, "Read()", wanted, mustRead(t, fs, "new", 3501, 0))
}

func TestWrite_Overwrite(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	data := bytes.Repeat([]byte{'a'}, 2048)
	mustWrite(t, fs, "a", data, 0)

	// straddle the boundary between the two blocks
	mustWrite(t, fs, "a", []byte("XY"), 1023)
	copy(data[1023:], "XY")

	if size, _ := fs.GetSize("a"); size != 2048 {
		t.Fatalf("GetSize(): wanted `2048`; found `%d`", size)
	}
	assertBytes(t, "Read()", data, mustRead(t, fs, "a", 2048, 0))

	files, _ := fs.List()
	if len(files[0].Blocks) != 2 {
		t.Fatalf("Blocks: wanted 2; found `%v`", files[0].Blocks)
	}
}

func TestWrite_Append(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	data := pattern(3000)
	for offset := 0; offset < len(data); offset += 700 {
		end := offset + 700
		if end > len(data) {
			end = len(data)
		}
		mustWrite(t, fs, "a", data[offset:end], Byte(offset))
	}
	assertBytes(t, "Read()", data, mustRead(t, fs, "a", 3000, 0))
	mustCheck(t, fs)
}

func TestWrite_NoSpace(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	mustCreate(t, fs, "b")
	mustWrite(t, fs, "b", []byte("keep"), 0)

	// 13 data blocks, one held by `b`: `a` can grow to 12 blocks
	n, err := fs.Write("a", pattern(12*int(BlockSize)+1), 0)
	if !errors.Is(err, ErrNoSpace) || n != 0 {
		t.Fatalf("Write(): wanted `0`, `%v`; found `%d`, `%v`", ErrNoSpace, n, err)
	}
	if size, _ := fs.GetSize("a"); size != 0 {
		t.Fatalf("GetSize(): wanted `0`; found `%d`", size)
	}
	if free := fs.table.CountFree(3); free != 11 {
		t.Fatalf("CountFree(): wanted `11` (nothing allocated); found `%d`", free)
	}

	mustWrite(t, fs, "a", pattern(12*int(BlockSize)), 0)
	if free := fs.table.CountFree(3); free != 0 {
		t.Fatalf("CountFree(): wanted `0`; found `%d`", free)
	}
	assertBytes(t, "Read()", []byte("keep"), mustRead(t, fs, "b", 4, 0))
	mustCheck(t, fs)
}

func TestRead_CorruptChain(t *testing.T) {
	fs, _ := newMounted(t, 16)
	mustCreate(t, fs, "a")
	data := pattern(3000)
	mustWrite(t, fs, "a", data, 0) // blocks 3, 4, 5
	fs.table.Set(4, 99)

	// the read stops at the bad link without an error
	assertBytes(t, "Read()", data[:2048], mustRead(t, fs, "a", 3000, 0))

	// the bad link is hit while skipping to the offset
	if found := mustRead(t, fs, "a", 10, 2500); len(found) != 0 {
		t.Fatalf("Read(): wanted `0` bytes; found `%d`", len(found))
	}

	if _, err := fs.Write("a", []byte("x"), 0); !errors.Is(
		err,
		ErrChainCorruption,
	) {
		t.Fatalf("Write(): wanted `%v`; found `%v`", ErrChainCorruption, err)
	}
}

func TestRead_CyclicChainOnDisk(t *testing.T) {
	fs, volume := newMounted(t, 16)
	mustCreate(t, fs, "a")
	mustWrite(t, fs, "a", pattern(1500), 0) // blocks 3, 4

	// point block 4 back at block 3 in the on-disk FAT
	raw := volume.Bytes()[Byte(FATStart)*BlockSize+4*4:]
	raw[0], raw[1], raw[2], raw[3] = 3, 0, 0, 0

	remounted := New(volume)
	if err := remounted.Mount(); err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}
	if _, err := remounted.Check(); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Check(): wanted `%v`; found `%v`", ErrInconsistent, err)
	}

	// reads are bounded by the file length
	if found := mustRead(t, remounted, "a", 1500, 0); len(found) != 1500 {
		t.Fatalf("Read(): wanted `1500` bytes; found `%d`", len(found))
	}
	if err := remounted.Delete("a"); !errors.Is(err, ErrChainCorruption) {
		t.Fatalf("Delete(): wanted `%v`; found `%v`", ErrChainCorruption, err)
	}
}
