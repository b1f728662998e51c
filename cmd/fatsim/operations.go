package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/weberc2/fatsim/pkg/fatfs"
)

// operation is a filesystem command shared by the command line and the
// interactive shell.
type operation struct {
	Name        string
	Args        []string
	Description string

	// Unmounted operations run against the raw volume; the command line
	// mounts the volume before running any other operation.
	Unmounted bool

	Run func(fs *fatfs.FileSystem, out io.Writer, args []string) error
}

func (op *operation) Usage() string {
	if len(op.Args) == 0 {
		return op.Name
	}
	return fmt.Sprintf("%s <%s>", op.Name, strings.Join(op.Args, "> <"))
}

var operations = []operation{{
	Name:        "format",
	Description: "write an empty filesystem over the whole volume",
	Unmounted:   true,
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return fs.Format()
	},
}, {
	Name:        "mount",
	Description: "load the filesystem metadata",
	Unmounted:   true,
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return fs.Mount()
	},
}, {
	Name:        "debug",
	Description: "dump the superblock and every file's block chain",
	Unmounted:   true,
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return fs.DebugDump(out)
	},
}, {
	Name:        "create",
	Args:        []string{"file"},
	Description: "create an empty file",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return fs.Create(args[0])
	},
}, {
	Name:        "delete",
	Args:        []string{"file"},
	Description: "delete a file",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return fs.Delete(args[0])
	},
}, {
	Name:        "size",
	Args:        []string{"file"},
	Description: "print a file's size in bytes",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		size, err := fs.GetSize(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, size)
		return err
	},
}, {
	Name:        "cat",
	Args:        []string{"file"},
	Description: "print a file's contents",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		_, err := fs.CopyOut(args[0], out)
		return err
	},
}, {
	Name:        "import",
	Args:        []string{"host path", "file"},
	Description: "copy a host file into the filesystem, creating it if needed",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return importFile(fs, out, args[0], args[1])
	},
}, {
	Name:        "export",
	Args:        []string{"file", "host path"},
	Description: "copy a file out of the filesystem onto the host",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return exportFile(fs, out, args[0], args[1])
	},
}, {
	Name:        "ls",
	Description: "list files with their sizes and blocks",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return listFiles(fs, out)
	},
}, {
	Name:        "check",
	Description: "verify the filesystem metadata",
	Run: func(fs *fatfs.FileSystem, out io.Writer, args []string) error {
		return checkFS(fs, out)
	},
}}

func findOperation(name string) (*operation, bool) {
	for i := range operations {
		if operations[i].Name == name {
			return &operations[i], true
		}
	}
	return nil, false
}

func importFile(fs *fatfs.FileSystem, out io.Writer, hostPath, name string) error {
	f, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("importing `%s`: %w", hostPath, err)
	}
	defer f.Close()

	if err := fs.Create(name); err != nil &&
		!errors.Is(err, fatfs.ErrAlreadyExists) {
		return fmt.Errorf("importing `%s`: %w", hostPath, err)
	}
	n, err := fs.CopyIn(name, f)
	fmt.Fprintf(out, "copied %d bytes\n", n)
	return err
}

func exportFile(fs *fatfs.FileSystem, out io.Writer, name, hostPath string) error {
	f, err := os.Create(hostPath)
	if err != nil {
		return fmt.Errorf("exporting to `%s`: %w", hostPath, err)
	}

	n, err := fs.CopyOut(name, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("exporting to `%s`: %w", hostPath, closeErr)
	}
	fmt.Fprintf(out, "copied %d bytes\n", n)
	return err
}

func listFiles(fs *fatfs.FileSystem, out io.Writer) error {
	files, err := fs.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tBLOCKS")
	for _, file := range files {
		blocks := make([]string, len(file.Blocks))
		for i, block := range file.Blocks {
			blocks[i] = fmt.Sprint(block)
		}
		chain := strings.Join(blocks, ",")
		if file.ChainErr != nil {
			chain += " (corrupt)"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", file.Name, file.Size, chain)
	}
	return w.Flush()
}

func checkFS(fs *fatfs.FileSystem, out io.Writer) error {
	report, err := fs.Check()
	if errors.Is(err, fatfs.ErrNotMounted) {
		return err
	}
	superblock := fs.Superblock()
	fmt.Fprintf(
		out,
		"superblock: %d blocks, %d FAT blocks, data from block %d\n",
		superblock.BlockCount,
		superblock.FATBlockCount,
		superblock.DataStart(),
	)
	fmt.Fprintf(
		out,
		"%d blocks: %d reserved, %d owned, %d free\n",
		report.Blocks,
		report.Reserved,
		report.Owned,
		report.Free,
	)
	for _, problem := range report.Problems {
		fmt.Fprintf(out, "problem: %s\n", problem)
	}
	return err
}
