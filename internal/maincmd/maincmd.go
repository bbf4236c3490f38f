// Package maincmd wires the CLI driver's flags and single compile command,
// following the teacher's internal/maincmd: a flat Cmd struct with
// flag-tagged fields, validated then dispatched through mainer.Parser.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "embercompile"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Reads a plain-text s-expression program from <path>, compiles it (lang/compiler),
and prints a disassembly of the resulting FuncDef tree. This is a minimal driver
for exercising the bytecode compiler; it is not part of the compiler itself.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the CLI's flag-bound state, dispatched by mainer.Parser (§ CLI
// driver component I).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }
func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no program path specified")
	}
	return nil
}

// Main implements the CLI entry point, grounded on the teacher's
// maincmd.Cmd.Main: parse flags, dispatch, translate errors to exit codes.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.Compile(ctx, stdio, c.args); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}
