package slot

import "github.com/mna/ember/lang/value"

// Flag is the compiler's bitset describing a Slot (§3). The low 16 bits are
// reserved for a type mask of accepted primitive types (unused by the
// special-form compiler itself, carried through for a future type-checking
// pass); the marker bits sit above that.
type Flag uint32

const typeMaskBits = 16

const (
	// FlagConstant means the slot's value is a literal to be loaded on
	// demand; no register holds it yet.
	FlagConstant Flag = 1 << (typeMaskBits + iota)
	// FlagNamed marks a binding with an entry in the scope's symbol table.
	FlagNamed
	// FlagMutable distinguishes a `var` binding from a `def` binding.
	FlagMutable
	// FlagRef means the logical variable lives in slot 0 of a one-element
	// array; Constant holds the array when combined with FlagConstant.
	FlagRef
	// FlagReturned marks a slot already consumed by a tail RETURN.
	FlagReturned
	// FlagSpliced is a transient marker on an argument slot produced by a
	// leading `splice`, telling the enclosing constructor to expand it.
	FlagSpliced
)

// TypeMask returns the low 16 bits of flags: the accepted-primitive-type
// mask.
func (f Flag) TypeMask() uint16 { return uint16(f) }

func (f Flag) has(bit Flag) bool { return f&bit != 0 }

// Slot is the compiler's handle on a value produced by compiling a subform
// (§3, GLOSSARY). It never outlives the compilation that produced it.
type Slot struct {
	Index    int // register number, or -1 if unassigned
	EnvIndex int // -1 for a local of the current function, k>=0 for an upvalue: its index in the function's envs list
	Flags    Flag
	Constant value.Value // meaningful only when Flags.IsConstant()
}

// Nil is the sentinel slot returned by every compiler operation once an
// error has been recorded (§7): it carries no register, no env index, and
// no flags, so callers can propagate it without special-casing.
var Nil = Slot{Index: -1, EnvIndex: -1}

func (s Slot) IsConstant() bool { return s.Flags.has(FlagConstant) }
func (s Slot) IsNamed() bool    { return s.Flags.has(FlagNamed) }
func (s Slot) IsMutable() bool  { return s.Flags.has(FlagMutable) }
func (s Slot) IsRef() bool      { return s.Flags.has(FlagRef) }
func (s Slot) IsReturned() bool { return s.Flags.has(FlagReturned) }
func (s Slot) IsSpliced() bool  { return s.Flags.has(FlagSpliced) }

// IsUpvalue reports whether the slot names a binding in an enclosing
// function's environment chain rather than a local register.
func (s Slot) IsUpvalue() bool { return s.EnvIndex >= 0 }

// Const returns a CONSTANT slot wrapping v: "load this literal on demand,
// no register holds it yet" (§3).
func Const(v value.Value) Slot {
	return Slot{Index: -1, EnvIndex: -1, Flags: FlagConstant, Constant: v}
}

// Local returns a slot bound to physical register reg.
func Local(reg int) Slot {
	return Slot{Index: reg, EnvIndex: -1}
}

// Upvalue returns a slot referring to envIndex, the position in the current
// function's upvalue chain (not a depth — depth is resolved at capture
// time into a flattened chain of single-hop indices, §4.D).
func Upvalue(envIndex int) Slot {
	return Slot{Index: -1, EnvIndex: envIndex}
}

// Ref returns a CONSTANT|REF slot: "the logical variable lives in slot 0 of
// a one-element array at `constant`" (§3). Used for globals, where the
// array object already exists at compile time as the environment entry's
// backing cell.
func Ref(arrayConstant value.Value) Slot {
	return Slot{Index: -1, EnvIndex: -1, Flags: FlagConstant | FlagRef, Constant: arrayConstant}
}

// RefLocal returns a REF slot (without CONSTANT) for a local `var`, boxed
// into a one-element array at its own declaration (not lazily, on first
// capture — a single-pass compiler has no way to go back and rewrite the
// declaration's bytecode once a later closure is found to capture it):
// reg holds the array pointer itself, materialised at runtime by a
// MAKE_ARRAY op, so each loop iteration that re-executes the declaration
// gets its own cell.
func RefLocal(reg int) Slot {
	return Slot{Index: reg, EnvIndex: -1, Flags: FlagRef | FlagMutable}
}

// RefUpvalue returns a REF slot reached through the upvalue chain: an outer
// function's already-boxed `var`, captured again by a function nested one
// level deeper still.
func RefUpvalue(envIndex int) Slot {
	return Slot{Index: -1, EnvIndex: envIndex, Flags: FlagRef | FlagMutable}
}

// WithFlags returns a copy of s with additional flag bits set.
func (s Slot) WithFlags(add Flag) Slot {
	s.Flags |= add
	return s
}

// IsNilSlot reports whether s is the Nil sentinel (the post-error no-op
// return value, §7).
func IsNilSlot(s Slot) bool {
	return s.Index == -1 && s.EnvIndex == -1 && s.Flags == 0
}
