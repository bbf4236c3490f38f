package slot

import (
	"fmt"

	"github.com/mna/ember/lang/value"
)

// maxConstants bounds a function scope's constant pool (§3, §7: "too many
// constants (>65535)").
const maxConstants = 65535

// ConstPool is the deduplicated constant table attached to a function
// scope (§4.C: "lookup is linear with deep equality; capacity limit is
// 65535").
type ConstPool struct {
	values []value.Value
}

// Add returns the index of v in the pool, appending it if no equal value is
// already present.
func (p *ConstPool) Add(v value.Value) (int, error) {
	for i, existing := range p.values {
		if value.Equal(existing, v) {
			return i, nil
		}
	}
	if len(p.values) >= maxConstants {
		return 0, fmt.Errorf("too many constants")
	}
	p.values = append(p.values, v)
	return len(p.values) - 1, nil
}

// Values returns the pool's contents in index order, for attaching to a
// finished FuncDef.
func (p *ConstPool) Values() []value.Value {
	out := make([]value.Value, len(p.values))
	copy(out, p.values)
	return out
}

// Len reports how many distinct constants have been added so far.
func (p *ConstPool) Len() int { return len(p.values) }
