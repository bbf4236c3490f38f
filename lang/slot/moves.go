package slot

import (
	"math"

	"github.com/mna/ember/lang/register"
	"github.com/mna/ember/lang/value"
)

// nearLimit is the width of the "near" register space every opcode but
// MOVE_FAR/LOAD_UPVALUE-by-envindex can address directly in a single
// 8-bit operand (§4.C reg_near/reg_far).
const nearLimit = 256

// Materializer bundles the shared emitter, a function scope's register
// allocator, and its constant pool: the three pieces of state §4.C's
// moves and register-materialisation routines thread through together.
type Materializer struct {
	Emit   *Emitter
	Regs   *register.Allocator
	Consts *ConstPool
}

// isPlainLocal reports whether s is already sitting in an ordinary
// register with no further dereferencing needed to read or write it.
func isPlainLocal(s Slot) bool {
	return !s.IsConstant() && !s.IsUpvalue() && !s.IsRef()
}

// LoadConst implements loadconst(k, reg): nil/boolean/small-integer fast
// paths, falling back to the constant pool and LOAD_CONSTANT.
func (m *Materializer) LoadConst(reg uint8, k value.Value, pos Position) error {
	switch v := k.(type) {
	case value.Nil:
		m.Emit.EmitS(LOAD_NIL, reg, pos)
		return nil
	case value.Bool:
		if v {
			m.Emit.EmitS(LOAD_TRUE, reg, pos)
		} else {
			m.Emit.EmitS(LOAD_FALSE, reg, pos)
		}
		return nil
	case value.Int:
		if v >= math.MinInt16 && v <= math.MaxInt16 {
			m.Emit.EmitSI(LOAD_INTEGER, reg, int16(v), pos)
			return nil
		}
	case value.Number:
		if iv := int32(v); float64(iv) == float64(v) && iv >= math.MinInt16 && iv <= math.MaxInt16 {
			m.Emit.EmitSI(LOAD_INTEGER, reg, int16(iv), pos)
			return nil
		}
	}
	idx, err := m.Consts.Add(k)
	if err != nil {
		return err
	}
	m.Emit.EmitSU(LOAD_CONSTANT, reg, uint16(idx), pos)
	return nil
}

// refObject materialises the one-element array a REF slot points at into
// dest and returns dest, or reports that the array pointer is already
// resident in a plain register (the RefLocal/RefUpvalue case) and returns
// its register.
func (m *Materializer) refObject(dest uint8, s Slot, pos Position) (objReg uint8, err error) {
	switch {
	case s.IsConstant():
		if err := m.LoadConst(dest, s.Constant, pos); err != nil {
			return 0, err
		}
		return dest, nil
	case s.IsUpvalue():
		m.Emit.EmitSS(LOAD_UPVALUE, dest, envOperand(s.EnvIndex), pos)
		return dest, nil
	default:
		return uint8(s.Index), nil
	}
}

// MoveNear implements move_near(dest_reg, src_slot): loads a constant
// (dereferencing a REF via GET_INDEX on its one-element array), an upvalue
// (LOAD_UPVALUE), or a local (MOVE_NEAR).
func (m *Materializer) MoveNear(dest uint8, s Slot, pos Position) error {
	switch {
	case s.IsRef():
		objReg, err := m.refObject(dest, s, pos)
		if err != nil {
			return err
		}
		m.Emit.EmitSSU(GET_INDEX, dest, objReg, 0, pos)
		return nil
	case s.IsConstant():
		return m.LoadConst(dest, s.Constant, pos)
	case s.IsUpvalue():
		m.Emit.EmitSS(LOAD_UPVALUE, dest, envOperand(s.EnvIndex), pos)
		return nil
	default:
		if int(dest) == s.Index {
			return nil // already resident
		}
		m.Emit.EmitSS(MOVE_NEAR, dest, uint8(s.Index), pos)
		return nil
	}
}

// MoveBack implements move_back(dest_slot, src_reg), the dual of MoveNear
// for writes: PUT_INDEX for a REF, SET_UPVALUE for an upvalue, MOVE_FAR
// (or MOVE_NEAR, when the target happens to be near) for a local.
func (m *Materializer) MoveBack(dest Slot, src uint8, pos Position) error {
	switch {
	case dest.IsRef():
		var objReg uint8
		var tmp int
		var borrowed bool
		switch {
		case dest.IsConstant():
			t, err := m.Regs.AllocTemp(register.T6)
			if err != nil {
				return err
			}
			tmp, borrowed = t, true
			if err := m.LoadConst(uint8(tmp), dest.Constant, pos); err != nil {
				m.Regs.FreeTemp(tmp, register.T6)
				return err
			}
			objReg = uint8(tmp)
		case dest.IsUpvalue():
			t, err := m.Regs.AllocTemp(register.T6)
			if err != nil {
				return err
			}
			tmp, borrowed = t, true
			m.Emit.EmitSS(LOAD_UPVALUE, uint8(tmp), envOperand(dest.EnvIndex), pos)
			objReg = uint8(tmp)
		default:
			objReg = uint8(dest.Index)
		}
		m.Emit.EmitSSU(PUT_INDEX, objReg, src, 0, pos)
		if borrowed {
			m.Regs.FreeTemp(tmp, register.T6)
		}
		return nil
	case dest.IsUpvalue():
		// Unreachable in practice: every mutable binding this package produces
		// is boxed into a RefLocal/RefUpvalue at its own declaration
		// (compiler.boxLocal, §4.D), so IsRef() is already true by the time a
		// mutable upvalue reaches MoveBack, and the case above claims it first.
		// A plain, non-Ref, mutable Upvalue slot would have to come from some
		// other binder that skips boxing; none exists. SET_UPVALUE stays wired
		// for that hypothetical binder rather than a live path today.
		m.Emit.EmitSS(SET_UPVALUE, envOperand(dest.EnvIndex), src, pos)
		return nil
	case dest.Index >= nearLimit:
		m.Emit.EmitSU(MOVE_FAR, src, uint16(dest.Index), pos)
		return nil
	default:
		if int(src) == dest.Index {
			return nil
		}
		m.Emit.EmitSS(MOVE_NEAR, uint8(dest.Index), src, pos)
		return nil
	}
}

// Copy implements copy(dest, src): the four near/far combinations, via an
// interposed temporary register.
func (m *Materializer) Copy(dest, src Slot, pos Position) error {
	reg, borrowed, err := m.RegNear(src, register.T7, pos)
	if err != nil {
		return err
	}
	if borrowed {
		defer m.Regs.FreeTemp(reg, register.T7)
	}
	return m.MoveBack(dest, uint8(reg), pos)
}

// RegNear implements reg_near(slot): an existing near register if the slot
// already is one, otherwise a temp plus a MoveNear.
func (m *Materializer) RegNear(s Slot, tag register.Tag, pos Position) (reg int, borrowed bool, err error) {
	if isPlainLocal(s) && s.Index >= 0 && s.Index < nearLimit {
		return s.Index, false, nil
	}
	reg, err = m.Regs.AllocTemp(tag)
	if err != nil {
		return 0, false, err
	}
	if err = m.MoveNear(uint8(reg), s, pos); err != nil {
		return 0, false, err
	}
	return reg, true, nil
}

// RegFar implements reg_far(slot): a full-range register, reusing an
// existing local slot's register directly and otherwise allocating a fresh
// one via Alloc1 (not a near temp, so it can live past the 256 boundary).
func (m *Materializer) RegFar(s Slot, pos Position) (reg int, borrowed bool, err error) {
	if isPlainLocal(s) {
		return s.Index, false, nil
	}
	reg, err = m.Regs.Alloc1()
	if err != nil {
		return 0, false, err
	}
	if reg < nearLimit {
		err = m.MoveNear(uint8(reg), s, pos)
	} else {
		var near int
		near, _, err = m.RegNear(s, register.T5, pos)
		if err == nil {
			m.Emit.EmitSU(MOVE_FAR, uint8(near), uint16(reg), pos)
		}
	}
	if err != nil {
		return 0, false, err
	}
	return reg, true, nil
}

func envOperand(envIndex int) uint8 {
	if envIndex < 0 || envIndex > math.MaxUint8 {
		return 0
	}
	return uint8(envIndex)
}
