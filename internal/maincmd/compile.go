package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/mainer"
)

// Compile reads the program at args[0], compiles it, and prints a
// disassembly of the resulting FuncDef tree (§ CLI driver component I).
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("compile: no program path given")
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	v, err := readProgram(string(src))
	if err != nil {
		return fmt.Errorf("compile: %s: %w", args[0], err)
	}

	env := scope.NewEnv(0)
	result := compiler.Compile(v, env, args[0])
	if result.FuncDef == nil {
		return fmt.Errorf("compile: %s:%d:%d: %s", args[0], result.Line, result.Col, result.Err)
	}

	fmt.Fprint(stdio.Stdout, compiler.Disassemble(result.FuncDef))
	return nil
}
