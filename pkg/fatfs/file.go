package fatfs

import (
	"fmt"
	"io"

	. "github.com/weberc2/fatsim/pkg/types"
)

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
	_ io.Seeker = (*File)(nil)
)

// File is a cursor over one file of a mounted filesystem.
type File struct {
	fs     *FileSystem
	name   string
	offset Byte
}

// Open returns a cursor positioned at the start of an existing file.
func (fs *FileSystem) Open(name string) (*File, error) {
	if _, err := fs.entry(name); err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	return &File{fs: fs, name: name}, nil
}

func (f *File) Name() string { return f.name }

func (f *File) Read(p []byte) (int, error) {
	size, err := f.fs.GetSize(f.name)
	if err != nil {
		return 0, err
	}
	if f.offset >= size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := f.fs.Read(f.name, p, f.offset)
	f.offset += n
	if err != nil {
		return int(n), err
	}
	if n == 0 {
		// the chain ended before the length did
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.fs.Write(f.name, p, f.offset)
	f.offset += n
	if err != nil {
		return int(n), err
	}
	if int(n) < len(p) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}

const (
	ErrNegativeOffset ConstError = "negative offset"
	ErrInvalidWhence  ConstError = "invalid whence"
)

func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base Byte
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		size, err := f.fs.GetSize(f.name)
		if err != nil {
			return 0, fmt.Errorf("seeking: %w", err)
		}
		base = size
	default:
		return 0, fmt.Errorf("seeking: whence `%d`: %w", whence, ErrInvalidWhence)
	}
	if base+Byte(offset) < 0 {
		return 0, fmt.Errorf(
			"seeking to `%d`: %w",
			base+Byte(offset),
			ErrNegativeOffset,
		)
	}
	f.offset = base + Byte(offset)
	return int64(f.offset), nil
}
