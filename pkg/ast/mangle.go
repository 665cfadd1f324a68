package ast

import "fmt"

// Mangler is the single process-wide monotonic counter backing every
// globally unique identifier this compiler produces: variable name
// mangling during parsing, and loop/switch/ternary/short-circuit label ids
// during both parsing and code generation. One Mangler is created per
// compilation and threaded through both phases so that a label minted
// during codegen can never collide with a unique_name minted during
// parsing, even though the two phases run one after the other rather than
// concurrently.
type Mangler struct {
	counter int
}

// NewMangler returns a fresh, zeroed counter.
func NewMangler() *Mangler { return &Mangler{} }

// UniqueName appends the next counter value to base, e.g. "x" -> "x_3".
func (m *Mangler) UniqueName(base string) string {
	m.counter++
	return fmt.Sprintf("%s_%d", base, m.counter)
}

// NextID returns the next raw counter value, used to tag loops, switches,
// and (during codegen) ternary and short-circuit label families.
func (m *Mangler) NextID() int {
	m.counter++
	return m.counter
}
