package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/weberc2/fatsim/pkg/fatfs"
)

// Shell reads commands line by line and runs them against one filesystem
// handle. Command errors are printed and the loop carries on.
type Shell struct {
	FS     *fatfs.FileSystem
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func (sh *Shell) Run() error {
	scanner := bufio.NewScanner(sh.In)
	for {
		if sh.Prompt != "" {
			fmt.Fprint(sh.Out, sh.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		if exit := sh.Exec(scanner.Text()); exit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

// Exec runs one command line and reports whether the shell should exit.
func (sh *Shell) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit":
		return true
	case "help":
		sh.help()
		return false
	}

	op, ok := findOperation(fields[0])
	if !ok {
		fmt.Fprintf(sh.Out, "unknown command: %s\ntype 'help'.\n", fields[0])
		return false
	}
	if args := fields[1:]; len(args) != len(op.Args) {
		fmt.Fprintf(sh.Out, "usage: %s\n", op.Usage())
		return false
	}
	if err := op.Run(sh.FS, sh.Out, fields[1:]); err != nil {
		fmt.Fprintf(sh.Out, "error: %v\n", err)
	}
	return false
}

func (sh *Shell) help() {
	fmt.Fprintln(sh.Out, "commands:")
	for i := range operations {
		fmt.Fprintf(
			sh.Out,
			"    %-28s %s\n",
			operations[i].Usage(),
			operations[i].Description,
		)
	}
	fmt.Fprintf(sh.Out, "    %-28s %s\n", "help", "print this message")
	fmt.Fprintf(sh.Out, "    %-28s %s\n", "exit", "leave the shell")
}
