package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	dirColor    = color.New(color.FgBlue, color.Bold).SprintFunc()
	hashColor   = color.New(color.FgCyan).SprintFunc()
	packedColor = color.New(color.FgYellow).SprintFunc()
	okColor     = color.New(color.FgGreen).SprintFunc()
	badColor    = color.New(color.FgRed, color.Bold).SprintFunc()
)

// setupColor enables color only when w is a terminal.
func setupColor(w io.Writer) {
	f, ok := w.(*os.File)
	color.NoColor = !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
