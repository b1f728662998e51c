package fatfs

import (
	"fmt"
	"io"

	. "github.com/weberc2/fatsim/pkg/types"
)

// CopyChunkSize is the transfer size used when copying between the
// filesystem and host streams.
const CopyChunkSize = 16384

// CopyIn writes everything from `r` into the existing file `name`, starting
// at offset zero, and returns the number of bytes stored. A write that
// stores fewer bytes than it was given stops the copy with
// `io.ErrShortWrite`.
func (fs *FileSystem) CopyIn(name string, r io.Reader) (Byte, error) {
	buf := make([]byte, CopyChunkSize)
	var offset Byte
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			written, err := fs.Write(name, buf[:n], offset)
			offset += written
			if err != nil {
				return offset, fmt.Errorf(
					"copying into `%s` at offset `%d`: %w",
					name,
					offset,
					err,
				)
			}
			if written != Byte(n) {
				return offset, fmt.Errorf(
					"copying into `%s`: wrote `%d` of `%d` bytes: %w",
					name,
					written,
					n,
					io.ErrShortWrite,
				)
			}
		}
		if readErr == io.EOF {
			return offset, nil
		}
		if readErr != nil {
			return offset, fmt.Errorf(
				"copying into `%s`: reading source: %w",
				name,
				readErr,
			)
		}
	}
}

// CopyOut streams the whole of file `name` into `w` and returns the number
// of bytes copied. A chain that ends before the file's length is reported
// as `io.ErrUnexpectedEOF`.
func (fs *FileSystem) CopyOut(name string, w io.Writer) (Byte, error) {
	size, err := fs.GetSize(name)
	if err != nil {
		return 0, fmt.Errorf("copying out: %w", err)
	}

	buf := make([]byte, CopyChunkSize)
	var offset Byte
	for offset < size {
		n, err := fs.Read(name, buf, offset)
		if err != nil {
			return offset, fmt.Errorf("copying out of `%s`: %w", name, err)
		}
		if n == 0 {
			return offset, fmt.Errorf(
				"copying out of `%s`: got `%d` of `%d` bytes: %w",
				name,
				offset,
				size,
				io.ErrUnexpectedEOF,
			)
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return offset, fmt.Errorf(
				"copying out of `%s`: writing destination: %w",
				name,
				err,
			)
		}
		offset += n
	}
	return offset, nil
}
