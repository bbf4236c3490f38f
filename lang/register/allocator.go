// Package register implements the bytecode compiler's physical register
// allocator: a first-fit bit vector with eight reserved named temp slots,
// grounded on the allocation/free/pin vocabulary of
// nooga-paserati's pkg/compiler/regalloc.go, rebuilt over
// github.com/bits-and-blooms/bitset so the live set is a real dynamic bit
// vector rather than a free list (that repo's allocator tracks liveness as
// a []Register free list plus a high-water mark; this one needs a scannable
// bit vector because Clone must deep-copy the full live set for the
// while-loop closure-capture fallback).
package register

import (
	"fmt"
	"os"
)

// debug gates verbose trace output from Alloc1/Free, useful when tracking
// down a register double-free or an unexpectedly high slot count.
const debug = false

// Tag names one of the eight reserved temp slots. Distinct tags let nested
// emitters requesting temps at the same time avoid colliding with each
// other.
type Tag uint8

const (
	T0 Tag = iota
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	numTemps
)

// tempLimit bounds the registers a tagged temp may claim directly: only
// those below the 0xF0 near-register boundary.
const tempLimit = 0xF0

// maxRegister bounds allocation: a compiler that needs a 65536th register
// has run out of room to encode it in the 16-bit "far" register field.
const maxRegister = 65536

// Allocator is a per-function-scope bit vector of live physical registers.
// It is chunked in words the way the spec's bit vector is, except the
// chunking is delegated to bitset.BitSet rather than hand-rolled.
type Allocator struct {
	live     *bitSet
	max      int // high-water mark: one past the highest register ever touched
	regtemps [numTemps]bool
}

// New returns an allocator with no live registers.
func New() *Allocator {
	return &Allocator{live: newBitSet()}
}

// Alloc1 scans for the first free register, marks it live, and returns it.
func (a *Allocator) Alloc1() (int, error) {
	reg := a.live.firstClear()
	if reg >= maxRegister {
		return 0, fmt.Errorf("ran out of internal registers")
	}
	a.live.set(reg)
	a.bump(reg)
	if debug {
		fmt.Fprintf(os.Stderr, "register: alloc1 -> %d (max=%d)\n", reg, a.max)
	}
	return reg, nil
}

// AllocTemp claims the first free register below tempLimit for tag if the
// tag is not already reserved, falling back to Alloc1 otherwise (another
// nested emitter is already using the tag, or no low register is free).
func (a *Allocator) AllocTemp(tag Tag) (int, error) {
	if !a.regtemps[tag] {
		if reg := a.live.firstClear(); reg < tempLimit {
			a.regtemps[tag] = true
			a.live.set(reg)
			a.bump(reg)
			return reg, nil
		}
	}
	return a.Alloc1()
}

// Free releases reg, making it available for reuse.
func (a *Allocator) Free(reg int) {
	if debug {
		fmt.Fprintf(os.Stderr, "register: free %d\n", reg)
	}
	a.live.clear(reg)
}

// FreeTemp releases a register obtained from AllocTemp, also clearing its
// tag reservation.
func (a *Allocator) FreeTemp(reg int, tag Tag) {
	a.regtemps[tag] = false
	a.live.clear(reg)
}

// Touch raises the high-water mark as though reg had been allocated,
// without actually marking it live. The compiler's popScope uses this to
// keep a closing block's result register counted in the slot count.
func (a *Allocator) Touch(reg int) {
	a.bump(reg)
}

func (a *Allocator) bump(reg int) {
	if reg+1 > a.max {
		a.max = reg + 1
	}
}

// MaxUsed returns the high-water mark: the FuncDef's slot count at
// function-scope close.
func (a *Allocator) MaxUsed() int { return a.max }

// Clone deep-copies the live set and high-water mark, used by the
// while-loop recompile-as-function fallback to snapshot allocator state
// before a speculative re-emit and restore it if the speculation is
// discarded.
func (a *Allocator) Clone() *Allocator {
	c := &Allocator{live: a.live.clone(), max: a.max, regtemps: a.regtemps}
	return c
}

// RestoreFrom replaces a's state with snap's, in place, so that existing
// Slot values still referencing the allocator observe the reverted state.
func (a *Allocator) RestoreFrom(snap *Allocator) {
	a.live = snap.live.clone()
	a.max = snap.max
	a.regtemps = snap.regtemps
}
