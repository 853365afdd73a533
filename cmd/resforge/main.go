// Command resforge inspects and edits game archives and resources.
//
// Usage:
//
//	resforge <command> [flags] [args]
//
// Commands:
//
//	ls        list archive entries
//	cat       write one file to stdout
//	extract   copy files out of an archive or workspace
//	hash      print hashed-archive path hashes
//	create    create an empty hashed archive
//	add       add a file to a hashed archive
//	update    replace a file in a hashed archive
//	rebuild   repack a hashed archive
//	pack-tree build a tree archive from a directory
//	roundtrip decode and re-encode a resource and compare the bytes
//	dump      decode a resource and print it as YAML
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
)

type command struct {
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = map[string]command{
	"ls":        {"ls [-platform p] <archive>", runLs},
	"cat":       {"cat [-platform p] <archive> <path> | cat -config ws.yaml <path>", runCat},
	"extract":   {"extract -o dir [-list file] <archive> | extract -config ws.yaml -o dir -list file", runExtract},
	"hash":      {"hash <path>...", runHash},
	"create":    {"create [-capacity n] <hashed>", runCreate},
	"add":       {"add [-z level] <hashed> <path> <file>", runAdd},
	"update":    {"update [-z level] <hashed> <path> <file>", runUpdate},
	"rebuild":   {"rebuild [-capacity n] <hashed>", runRebuild},
	"pack-tree": {"pack-tree -o base [-platform p] <dir>", runPackTree},
	"roundtrip": {"roundtrip -type kind [-platform p] [-version n] [-gpu file] <file>", runRoundTrip},
	"dump":      {"dump -type kind [-platform p] [-version n] [-gpu file] <file>", runDump},
}

// errUsage makes run print the command usage.
var errUsage = errors.New("usage")

type env struct {
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "resforge: unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}
	setupColor(stdout)

	err := cmd.run(ctx, &env{stdout: stdout, stderr: stderr}, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "usage: resforge %s\n", cmd.usage)
		return 2
	default:
		fmt.Fprintf(stderr, "resforge %s: %v\n", args[0], err)
		return 1
	}
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: resforge <command> [flags] [args]")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}
