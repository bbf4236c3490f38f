package value

// FuncTag identifies a built-in function to the inliner table (§4.H):
// "built-in functions carry a small integer tag in their FuncDef flags; the
// compiler uses this to recognise the same semantic built-ins even when
// they have been aliased or rebound locally" (§9). Tags are a runtime
// convention owned by the environment that seeds the compiler's globals,
// not a syntactic one.
type FuncTag uint8

const (
	TagNone FuncTag = iota
	TagAdd
	TagSubtract
	TagMultiply
	TagDivide
	TagEquals
	TagNotEquals
	TagLessThan
	TagLessThanEqual
	TagGreaterThan
	TagGreaterThanEqual
	TagGet
	TagPut
	TagLength
)

// CFunction is a built-in (VM-provided) function value. The compiler never
// executes one; it only inspects Tag to decide whether a call site can be
// inlined to a primitive opcode (§4.H).
type CFunction struct {
	Name string
	Tag  FuncTag
}

func (*CFunction) Kind() Kind       { return KindCFunction }
func (f *CFunction) String() string { return "cfunction/" + f.Name }
func (f *CFunction) Truth() bool    { return true }

// Function is a placeholder for a closure value as constructed by the VM
// from a FuncDef at CLOSURE execution time. The compiler never constructs
// one; it exists so the tagged union is complete and so host code gluing
// the CORE to a VM has a concrete type to point the CLOSURE opcode at.
type Function struct {
	Name string
}

func (*Function) Kind() Kind       { return KindFunction }
func (f *Function) String() string { return "function/" + f.Name }
func (f *Function) Truth() bool    { return true }

// Fiber is a placeholder for the cooperative-coroutine value the VM and
// scheduler (out of CORE scope, §5) implement. The compiler's only need for
// it is as the optional carrier of a macro-bubble error (§7).
type Fiber struct {
	Status string
}

func (*Fiber) Kind() Kind       { return KindFiber }
func (f *Fiber) String() string { return "fiber" }
func (f *Fiber) Truth() bool    { return true }

// Abstract is a placeholder for host-defined opaque values (typed arrays,
// file handles, etc., out of CORE scope).
type Abstract struct {
	Tag  string
	Data any
}

func (*Abstract) Kind() Kind       { return KindAbstract }
func (a *Abstract) String() string { return "abstract/" + a.Tag }
func (a *Abstract) Truth() bool    { return true }
