package compiler_test

import (
	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/scope"
	"github.com/mna/ember/lang/value"
)

// newTestEnv seeds a global environment with the tagged built-ins the
// inliner table recognises, standing in for the host runtime's prelude
// (out of this repo's scope, §9): just enough for tests to exercise
// call-site inlining and nil-compare lowering.
func newTestEnv() *scope.Env {
	env := scope.NewEnv(0)
	tag := func(name string, t value.FuncTag) {
		scope.DefineGlobal(env, name, &value.CFunction{Name: name, Tag: t}, false)
	}
	tag("+", value.TagAdd)
	tag("-", value.TagSubtract)
	tag("*", value.TagMultiply)
	tag("/", value.TagDivide)
	tag("=", value.TagEquals)
	tag("not=", value.TagNotEquals)
	tag("<", value.TagLessThan)
	tag("<=", value.TagLessThanEqual)
	tag(">", value.TagGreaterThan)
	tag(">=", value.TagGreaterThanEqual)
	tag("get", value.TagGet)
	tag("put", value.TagPut)
	tag("length", value.TagLength)
	return env
}

func sym(s string) value.Symbol { return value.Symbol(s) }

func tuple(elems ...value.Value) *value.Tuple { return value.NewTuple(elems) }

func bracketTuple(elems ...value.Value) *value.Tuple { return value.NewBracketTuple(elems) }

func array(elems ...value.Value) *value.Array { return value.NewArray(elems) }

func mustCompile(t interface {
	Helper()
	Fatalf(string, ...any)
}, v value.Value, env *scope.Env) *compiler.FuncDef {
	t.Helper()
	if env == nil {
		env = newTestEnv()
	}
	res := compiler.Compile(v, env, "<test>")
	if res.FuncDef == nil {
		t.Fatalf("compile failed: %s (%d:%d)", res.Err, res.Line, res.Col)
	}
	return res.FuncDef
}
