package slot

import (
	"fmt"
	"os"
)

// debug gates a one-line-per-instruction trace of every word appended to
// the shared bytecode buffer, useful when an emitted program disassembles
// to something unexpected.
const debug = false

// Emitter owns the single growable bytecode and source-map buffers shared
// across an entire compilation (§3 Compiler: "growable bytecode and
// sourcemap buffers"). Function scopes don't get their own emitter: they
// splice their own [start:end) range out of these shared buffers into
// their FuncDef at close, via Extract, and the scope stack's bytecode_start
// marks where that range began (§3 Scope, §9 "the target implementation
// must expose an explicit buffer length on its emitter").
type Emitter struct {
	code      []uint32
	sourceMap []Position
}

// NewEmitter returns an empty shared emitter for one compilation.
func NewEmitter() *Emitter { return &Emitter{} }

// Mark returns the current write position, i.e. the index the next
// emission will occupy. Used as a scope's bytecode_start and as the saved
// offset a forward jump patches back into.
func (e *Emitter) Mark() int { return len(e.code) }

// Truncate discards every instruction from mark onward, used both when a
// function scope splices its range out of the shared buffer and when a
// while loop discovers it must recompile as a tail-recursive function
// (§4.F, §9): the same operation serves both.
func (e *Emitter) Truncate(mark int) {
	e.code = e.code[:mark]
	e.sourceMap = e.sourceMap[:mark]
}

// Extract copies out code[start:end) and its parallel source-map range,
// for attaching to a finished FuncDef.
func (e *Emitter) Extract(start, end int) ([]uint32, []Position) {
	code := make([]uint32, end-start)
	copy(code, e.code[start:end])
	sm := make([]Position, end-start)
	copy(sm, e.sourceMap[start:end])
	return code, sm
}

func (e *Emitter) append(word uint32, pos Position) int {
	pc := len(e.code)
	if debug {
		fmt.Fprintf(os.Stderr, "%d: %s %d:%d\n", pc, Opcode(word&0xff), pos.Line, pos.Col)
	}
	e.code = append(e.code, word)
	e.sourceMap = append(e.sourceMap, pos)
	return pc
}

// EmitS packs a one-operand instruction: op | a<<8.
func (e *Emitter) EmitS(op Opcode, a uint8, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8, pos)
}

// EmitSS packs a two-operand near instruction: op | a<<8 | b<<16.
func (e *Emitter) EmitSS(op Opcode, a, b uint8, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(b)<<16, pos)
}

// EmitSSS packs a three-operand near instruction: op | a<<8 | b<<16 | c<<24.
func (e *Emitter) EmitSSS(op Opcode, a, b, c uint8, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(b)<<16|uint32(c)<<24, pos)
}

// EmitSI packs one operand plus a signed 16-bit immediate.
func (e *Emitter) EmitSI(op Opcode, a uint8, imm int16, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(uint16(imm))<<16, pos)
}

// EmitSU packs one operand plus an unsigned 16-bit immediate (constant pool
// index, far register number, envindex, ...).
func (e *Emitter) EmitSU(op Opcode, a uint8, imm uint16, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(imm)<<16, pos)
}

// EmitSSI packs two near operands plus a signed 8-bit immediate.
func (e *Emitter) EmitSSI(op Opcode, a, b uint8, imm int8, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(b)<<16|uint32(uint8(imm))<<24, pos)
}

// EmitSSU packs two near operands plus an unsigned 8-bit immediate.
func (e *Emitter) EmitSSU(op Opcode, a, b uint8, imm uint8, pos Position) int {
	return e.append(uint32(op)|uint32(a)<<8|uint32(b)<<16|uint32(imm)<<24, pos)
}

// maxJumpDelta bounds a jump's signed 16-bit displacement (§7: "jump too
// far (>32767 instructions)").
const maxJumpDelta = 32767
const minJumpDelta = -32768

func jumpDelta(from, to int) int16 {
	d := to - (from + 1)
	if d > maxJumpDelta || d < minJumpDelta {
		panic(fmt.Sprintf("jump too far: delta %d exceeds signed 16-bit range", d))
	}
	return int16(d)
}

// EmitJump emits a resolved jump to targetPC, computing its signed 16-bit
// delta relative to the instruction following the jump itself. Used for
// back-edges, where the target (the loop's start) is already known.
func (e *Emitter) EmitJump(op Opcode, a uint8, targetPC int, pos Position) int {
	idx := e.Mark()
	return e.EmitSI(op, a, jumpDelta(idx, targetPC), pos)
}

// ReserveJump emits a placeholder jump with a zero delta and returns its
// index, to be resolved later by PatchJump once the target is known (used
// for forward jumps: if/else, while's exit, break).
func (e *Emitter) ReserveJump(op Opcode, a uint8, pos Position) int {
	return e.EmitSI(op, a, 0, pos)
}

// PatchJump overwrites the placeholder at idx (previously returned by
// ReserveJump) with the resolved delta to targetPC, preserving its opcode
// and a-operand (§5 Ordering: "writing into previously-reserved instruction
// words whose offsets are held ... while child forms compile").
func (e *Emitter) PatchJump(idx, targetPC int) {
	word := e.code[idx]
	op := Opcode(word)
	a := uint8(word >> 8)
	e.code[idx] = uint32(op) | uint32(a)<<8 | uint32(uint16(jumpDelta(idx, targetPC)))<<16
}

// ResolveBreaks scans [start:end) for break placeholders (§4.F break: "a
// tagged jump, JUMP | 0x80") and rewrites each to a plain JUMP with the
// resolved forward delta to exitPC.
func (e *Emitter) ResolveBreaks(start, end, exitPC int) {
	for i := start; i < end; i++ {
		word := e.code[i]
		op := Opcode(word)
		if !IsBreakPlaceholder(op) {
			continue
		}
		a := uint8(word >> 8)
		resolved := ResolveBreakPlaceholder(op)
		e.code[i] = uint32(resolved) | uint32(a)<<8 | uint32(uint16(jumpDelta(i, exitPC)))<<16
	}
}
