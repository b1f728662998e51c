package fatfs

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/weberc2/fatsim/pkg/alloc"
	. "github.com/weberc2/fatsim/pkg/types"
)

type DirEntry struct {
	Used   bool
	Name   string
	Length Byte
	First  Block
}

type Directory [DirectoryCapacity]DirEntry

// FileInfo describes one file for listings.
type FileInfo struct {
	Name   string
	Size   Byte
	Blocks []Block

	// ChainErr is set when the file's block chain is corrupt. Blocks then
	// holds the blocks reached before the bad link.
	ChainErr error
}

func validateName(name string) error {
	if len(name) < 1 || Byte(len(name)) > MaxNameLength {
		return fmt.Errorf(
			"name `%s` must be 1 to %d bytes: %w",
			name,
			MaxNameLength,
			ErrInvalidName,
		)
	}
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("name %q contains NUL: %w", name, ErrInvalidName)
	}
	return nil
}

func (dir *Directory) lookup(name string) (int, bool) {
	for i := range dir {
		if dir[i].Used && dir[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

func (dir *Directory) firstUnused() (int, bool) {
	for i := range dir {
		if !dir[i].Used {
			return i, true
		}
	}
	return -1, false
}

// entry returns the used entry named `name`.
func (fs *FileSystem) entry(name string) (*DirEntry, error) {
	if err := fs.requireMounted(); err != nil {
		return nil, err
	}
	i, ok := fs.directory.lookup(name)
	if !ok {
		return nil, fmt.Errorf("file `%s`: %w", name, ErrNotFound)
	}
	return &fs.directory[i], nil
}

// Create adds an empty file. The file is given one data block up front.
func (fs *FileSystem) Create(name string) error {
	if err := fs.requireMounted(); err != nil {
		return fmt.Errorf("creating file `%s`: %w", name, err)
	}
	if err := validateName(name); err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if _, exists := fs.directory.lookup(name); exists {
		return fmt.Errorf("creating file `%s`: %w", name, ErrAlreadyExists)
	}
	slot, ok := fs.directory.firstUnused()
	if !ok {
		return fmt.Errorf("creating file `%s`: %w", name, ErrDirectoryFull)
	}

	block, err := fs.allocate()
	if err != nil {
		return fmt.Errorf("creating file `%s`: %w", name, err)
	}

	fs.directory[slot] = DirEntry{
		Used:   true,
		Name:   name,
		Length: 0,
		First:  block,
	}
	fs.flush()
	return nil
}

// Delete removes a file and releases its blocks. Block contents are left in
// place. If the file's chain is corrupt, the blocks reached before the bad
// link are released, the entry is still removed, and the corruption is
// returned.
func (fs *FileSystem) Delete(name string) error {
	entry, err := fs.entry(name)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}

	freed, chainErr := fs.table.FreeChain(entry.First, fs.dataStart())
	*entry = DirEntry{}
	fs.flush()

	if chainErr != nil {
		log.WithFields(log.Fields{
			"file":  name,
			"freed": freed,
		}).Warnf("deleted file with corrupt block chain: %v", chainErr)
		return fmt.Errorf("deleting file `%s`: %w", name, chainErr)
	}
	return nil
}

func (fs *FileSystem) GetSize(name string) (Byte, error) {
	entry, err := fs.entry(name)
	if err != nil {
		return 0, fmt.Errorf("getting size: %w", err)
	}
	return entry.Length, nil
}

// List returns the used directory entries in slot order.
func (fs *FileSystem) List() ([]FileInfo, error) {
	if err := fs.requireMounted(); err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return listDirectory(&fs.directory, fs.table, fs.dataStart()), nil
}

func listDirectory(
	dir *Directory,
	table *alloc.Table,
	dataStart Block,
) []FileInfo {
	var infos []FileInfo
	for i := range dir {
		if !dir[i].Used {
			continue
		}
		blocks, err := table.Chain(dir[i].First, dataStart)
		infos = append(infos, FileInfo{
			Name:     dir[i].Name,
			Size:     dir[i].Length,
			Blocks:   blocks,
			ChainErr: err,
		})
	}
	return infos
}
