package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/ember/lang/slot"
)

// operandShape classifies how an instruction word's three operand bytes
// are interpreted, mirroring the Emit* call each opcode is always
// produced through (§6).
type operandShape int

const (
	shapeNone operandShape = iota
	shapeS                 // a
	shapeSS                // a b
	shapeSSS               // a b c
	shapeJump              // a, signed imm16 jump delta
	shapeImm16             // a, signed imm16 (LOAD_INTEGER)
	shapeConstIndex        // a, unsigned imm16 constant-pool index
	shapeDefIndex          // a, unsigned imm16 inner-FuncDef index (CLOSURE)
	shapeFarIndex          // a, unsigned imm16 far-register index (MOVE_FAR)
	shapeImm8              // a b, unsigned imm8 (GET_INDEX/PUT_INDEX)
	shapeSignedImm8        // a b, signed imm8 (ADD_IMMEDIATE)
)

var shapes = map[slot.Opcode]operandShape{
	slot.LOAD_NIL:             shapeS,
	slot.LOAD_TRUE:            shapeS,
	slot.LOAD_FALSE:           shapeS,
	slot.LOAD_INTEGER:         shapeImm16,
	slot.LOAD_CONSTANT:        shapeConstIndex,
	slot.LOAD_SELF:            shapeS,
	slot.LOAD_UPVALUE:         shapeSS,
	slot.SET_UPVALUE:          shapeSS,
	slot.MOVE_NEAR:            shapeSS,
	slot.MOVE_FAR:             shapeFarIndex,
	slot.JUMP:                 shapeJump,
	slot.JUMP_IF:              shapeJump,
	slot.JUMP_IF_NOT:          shapeJump,
	slot.JUMP_IF_NIL:          shapeJump,
	slot.JUMP_IF_NOT_NIL:      shapeJump,
	slot.RETURN:               shapeS,
	slot.RETURN_NIL:           shapeS,
	slot.CALL:                 shapeSS,
	slot.TAILCALL:             shapeS,
	slot.PUSH:                 shapeS,
	slot.PUSH_ARRAY:           shapeS,
	slot.CLOSURE:              shapeDefIndex,
	slot.GET:                  shapeSSS,
	slot.IN:                   shapeSSS,
	slot.GET_INDEX:            shapeImm8,
	slot.PUT:                  shapeSSS,
	slot.PUT_INDEX:            shapeImm8,
	slot.LENGTH:                shapeSS,
	slot.MAKE_ARRAY:           shapeS,
	slot.MAKE_TUPLE:           shapeS,
	slot.MAKE_BRACKET_TUPLE:   shapeS,
	slot.MAKE_TABLE:           shapeS,
	slot.MAKE_STRUCT:          shapeS,
	slot.ADD:                  shapeSSS,
	slot.SUBTRACT:             shapeSSS,
	slot.MULTIPLY:             shapeSSS,
	slot.DIVIDE:               shapeSSS,
	slot.BAND:                 shapeSSS,
	slot.BOR:                  shapeSSS,
	slot.BXOR:                 shapeSSS,
	slot.BNOT:                 shapeSS,
	slot.SHIFT_LEFT:           shapeSSS,
	slot.SHIFT_RIGHT:          shapeSSS,
	slot.SHIFT_RIGHT_UNSIGNED: shapeSSS,
	slot.EQUALS:               shapeSSS,
	slot.GREATER_THAN:         shapeSSS,
	slot.LESS_THAN:            shapeSSS,
	slot.NUMERIC_EQUAL:                shapeSSS,
	slot.NUMERIC_LESS_THAN:            shapeSSS,
	slot.NUMERIC_GREATER_THAN:         shapeSSS,
	slot.NUMERIC_LESS_THAN_EQUAL:      shapeSSS,
	slot.NUMERIC_GREATER_THAN_EQUAL:   shapeSSS,
	slot.ADD_IMMEDIATE:        shapeSignedImm8,
	slot.EQUALS_IMMEDIATE:    shapeSignedImm8,
	slot.EQUALS_INTEGER:      shapeSignedImm8,
	slot.LESS_THAN_IMMEDIATE: shapeSignedImm8,
	slot.SIGNAL:  shapeS,
	slot.RESUME:  shapeS,
	slot.ERROR:   shapeS,
}

// Disassemble prints fd and every inner FuncDef it transitively defines in
// a human-readable textual form (§6 disassembly format), analogous to the
// teacher's asm.go but adapted to this CORE's fixed 32-bit word encoding
// in place of the teacher's varint one.
func Disassemble(fd *slot.FuncDef) string {
	var b strings.Builder
	disassembleOne(&b, fd, "")
	return b.String()
}

func disassembleOne(b *strings.Builder, fd *slot.FuncDef, prefix string) {
	name := fd.Name
	if name == "" {
		name = "<anonymous>"
	}
	fmt.Fprintf(b, "%sfunction %s (min=%d max=%d slots=%d flags=%s)\n",
		prefix, name, fd.MinArity, fd.MaxArity, fd.SlotCount, defFlagString(fd.Flags))

	for pc, word := range fd.Bytecode {
		op := slot.Opcode(word)
		a := uint8(word >> 8)
		b16 := uint16(word >> 16)
		fmt.Fprintf(b, "%s  %4d: %s\n", prefix, pc, instructionText(op, a, b16))
	}

	if len(fd.Constants) > 0 {
		fmt.Fprintf(b, "%s  constants:\n", prefix)
		for i, k := range fd.Constants {
			fmt.Fprintf(b, "%s    %4d: %s\n", prefix, i, k.String())
		}
	}

	for i, inner := range fd.InnerDefs {
		fmt.Fprintf(b, "%s  def %d:\n", prefix, i)
		disassembleOne(b, inner, prefix+"    ")
	}
}

func defFlagString(f slot.DefFlag) string {
	var parts []string
	if f.HasVararg() {
		parts = append(parts, "VARARG")
	}
	if f.HasStructArg() {
		parts = append(parts, "STRUCTARG")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

func instructionText(op slot.Opcode, a uint8, b16 uint16) string {
	name := op.String()
	shape := shapes[slot.ResolveBreakPlaceholder(op)]
	if slot.IsBreakPlaceholder(op) {
		name = "break@" + slot.ResolveBreakPlaceholder(op).String()
	}

	switch shape {
	case shapeNone:
		return name
	case shapeS:
		return fmt.Sprintf("%s %d", name, a)
	case shapeSS:
		return fmt.Sprintf("%s %d %d", name, a, uint8(b16))
	case shapeSSS:
		return fmt.Sprintf("%s %d %d %d", name, a, uint8(b16), uint8(b16>>8))
	case shapeJump:
		return fmt.Sprintf("%s %d %d", name, a, int16(b16))
	case shapeImm16:
		return fmt.Sprintf("%s %d %d", name, a, int16(b16))
	case shapeConstIndex:
		return fmt.Sprintf("%s %d cindex16:%d", name, a, b16)
	case shapeDefIndex:
		return fmt.Sprintf("%s %d defindex16:%d", name, a, b16)
	case shapeFarIndex:
		return fmt.Sprintf("%s %d farreg16:%d", name, a, b16)
	case shapeImm8:
		return fmt.Sprintf("%s %d %d %d", name, a, uint8(b16), uint8(b16>>8))
	case shapeSignedImm8:
		return fmt.Sprintf("%s %d %d %d", name, a, uint8(b16), int8(uint8(b16>>8)))
	default:
		return fmt.Sprintf("%s %d %d", name, a, b16)
	}
}
