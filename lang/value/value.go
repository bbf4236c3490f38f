// Package value implements the tagged-union runtime value model the
// compiler reads as input (parsed s-expressions) and writes as output
// (constants embedded in a FuncDef). It has no dependency on the compiler,
// the allocator or the scope machinery: it is the vocabulary they all speak.
package value

import (
	"hash/fnv"
	"math"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindInt
	KindSymbol
	KindKeyword
	KindString
	KindBuffer
	KindTuple
	KindArray
	KindStruct
	KindTable
	KindFunction
	KindCFunction
	KindFiber
	KindAbstract
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindInt:
		return "integer"
	case KindSymbol:
		return "symbol"
	case KindKeyword:
		return "keyword"
	case KindString:
		return "string"
	case KindBuffer:
		return "buffer"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	case KindCFunction:
		return "cfunction"
	case KindFiber:
		return "fiber"
	case KindAbstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// Value is implemented by every runtime type the compiler manipulates:
// nil, booleans, numbers, symbols/keywords, strings, buffers, tuples,
// arrays, structs, tables, and the opaque callable/fiber/abstract types.
type Value interface {
	Kind() Kind
	String() string
	Truth() bool
}

// Hashable is implemented by values with a non-identity hash, such as
// lang/dict.Struct (content-addressed); scalar types are hashed directly by
// Hash instead.
type Hashable interface {
	Value
	HashValue() uint64
}

// Comparable is implemented by values with a non-identity equality and
// ordering, again content-addressed dictionaries being the prototypical
// example.
type Comparable interface {
	Value
	EqualValue(other Value) bool
	CompareValue(other Value) int
}

// Nil is the unit type; NilValue is its only inhabitant.
type Nil struct{}

var NilValue = Nil{}

func (Nil) Kind() Kind     { return KindNil }
func (Nil) String() string { return "nil" }
func (Nil) Truth() bool    { return false }

// IsNil reports whether v is the nil value (a nil Go interface is treated
// as absent/empty-slot, not as the language nil).
func IsNil(v Value) bool {
	if v == nil {
		return false
	}
	_, ok := v.(Nil)
	return ok
}

// Equal implements the language's structural equality: atoms compare by
// value, tuples/structs compare deep-structurally (tuples because they are
// immutable value types, structs per the content-addressing contract), and
// every mutable container (array, buffer, table) as well as the opaque
// function/fiber/abstract variants compare by identity.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Nil:
		return true
	case Bool:
		return av == b.(Bool)
	case Number:
		return av == b.(Number)
	case Int:
		return av == b.(Int)
	case Symbol:
		return av == b.(Symbol)
	case Keyword:
		return av == b.(Keyword)
	case String:
		return av == b.(String)
	case *Tuple:
		return tupleEqual(av, b.(*Tuple))
	default:
		if ca, ok := a.(Comparable); ok {
			return ca.EqualValue(b)
		}
		return a == b
	}
}

func tupleEqual(a, b *Tuple) bool {
	if a == b {
		return true
	}
	if len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Elements {
		if !Equal(a.Elements[i], b.Elements[i]) {
			return false
		}
	}
	return true
}

// Compare imposes a deterministic total order across all Values, used by
// the struct's Robin-Hood tie-break rule (lang/dict) and nowhere else; it
// does not necessarily match any surface-language ordering operator.
func Compare(a, b Value) int {
	if a.Kind() != b.Kind() {
		return int(a.Kind()) - int(b.Kind())
	}
	switch av := a.(type) {
	case Nil:
		return 0
	case Bool:
		return b2i(bool(av)) - b2i(bool(b.(Bool)))
	case Number:
		return numCompare(float64(av), float64(b.(Number)))
	case Int:
		bv := b.(Int)
		if av < bv {
			return -1
		} else if av > bv {
			return 1
		}
		return 0
	case Symbol:
		return stringCompare(string(av), string(b.(Symbol)))
	case Keyword:
		return stringCompare(string(av), string(b.(Keyword)))
	case String:
		return stringCompare(string(av), string(b.(String)))
	case *Tuple:
		return tupleCompare(av, b.(*Tuple))
	default:
		if ca, ok := a.(Comparable); ok {
			return ca.CompareValue(b)
		}
		ha, hb := Hash(a), Hash(b)
		if ha != hb {
			if ha < hb {
				return -1
			}
			return 1
		}
		return 0
	}
}

func tupleCompare(a, b *Tuple) int {
	n := len(a.Elements)
	if len(b.Elements) < n {
		n = len(b.Elements)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.Elements[i], b.Elements[i]); c != 0 {
			return c
		}
	}
	return len(a.Elements) - len(b.Elements)
}

func numCompare(x, y float64) int {
	if x < y {
		return -1
	} else if x > y {
		return 1
	} else if x == y {
		return 0
	}
	// at least one NaN: make the order total and deterministic.
	if x == x {
		return -1
	} else if y == y {
		return 1
	}
	return 0
}

func stringCompare(x, y string) int {
	if x < y {
		return -1
	} else if x > y {
		return 1
	}
	return 0
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Hash returns a 64-bit hash consistent with Equal: Equal(a, b) implies
// Hash(a) == Hash(b).
func Hash(v Value) uint64 {
	switch vv := v.(type) {
	case Nil:
		return 0
	case Bool:
		if vv {
			return 1
		}
		return 2
	case Number:
		return hashBytes(mix(uint64(math.Float64bits(float64(vv))), kindSeed(KindNumber)))
	case Int:
		return hashBytes(mix(uint64(int64(vv)), kindSeed(KindInt)))
	case Symbol:
		return hashString(string(vv), KindSymbol)
	case Keyword:
		return hashString(string(vv), KindKeyword)
	case String:
		return hashString(string(vv), KindString)
	case *Tuple:
		h := kindSeed(KindTuple)
		for _, e := range vv.Elements {
			h = mix(h, Hash(e))
		}
		return h
	default:
		if ha, ok := v.(Hashable); ok {
			return ha.HashValue()
		}
		return identityHash(v)
	}
}

func kindSeed(k Kind) uint64 { return 0x9E3779B97F4A7C15 ^ uint64(k)*0x100000001B3 }

// mix combines two hash values deterministically (order matters, used to
// fold a sequence of hashes into one).
func mix(h, x uint64) uint64 {
	h ^= x + 0x9E3779B97F4A7C15 + (h << 6) + (h >> 2)
	return h
}

func hashString(s string, k Kind) uint64 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(s))
	return mix(f.Sum64(), kindSeed(k))
}

func hashBytes(h uint64) uint64 { return h }

var identitySeq uint64
var identityTable = map[Value]uint64{}

// identityHash assigns (and remembers) a stable hash for mutable/opaque
// values that are compared by identity rather than by content. It is not
// the address of v (interfaces holding non-pointer data have no address);
// a monotonically increasing counter keyed by the interface value itself is
// sufficient and avoids unsafe.Pointer games the pack never reaches for.
func identityHash(v Value) uint64 {
	if h, ok := identityTable[v]; ok {
		return h
	}
	identitySeq++
	h := mix(identitySeq, kindSeed(v.Kind()))
	identityTable[v] = h
	return h
}
