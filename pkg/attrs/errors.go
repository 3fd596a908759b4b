package attrs

import (
	"fmt"
	"strings"
)

// ErrUnsettable is matched (via errors.Is) by faults raised when a value is
// assigned to a computed property that has no setter.
var ErrUnsettable = fmt.Errorf("attrs: computed property has no setter")

// ErrRecursiveSetter is matched (via errors.Is) by faults raised when a
// write-merge revisits a property already being resolved in the same outer
// write, i.e. a cycle between computed setters.
var ErrRecursiveSetter = fmt.Errorf("attrs: recursive setter")

// UnsettableError reports an assignment to a computed, non-settable
// property. The write call fails immediately; nothing in the failing
// branch is applied.
type UnsettableError struct {
	Name string
}

func (e *UnsettableError) Error() string {
	return fmt.Sprintf("attrs: cannot set computed property %q: no setter", e.Name)
}

// Is lets errors.Is(err, ErrUnsettable) match.
func (e *UnsettableError) Is(target error) bool {
	return target == ErrUnsettable
}

// RecursiveSetterError reports a setter cycle detected during write-merge.
// Path holds the chain of property names from the outer write down to the
// repeated property, for diagnostics.
type RecursiveSetterError struct {
	Path []string
}

func (e *RecursiveSetterError) Error() string {
	return fmt.Sprintf("attrs: recursive setter cycle: %s", strings.Join(e.Path, " -> "))
}

// Is lets errors.Is(err, ErrRecursiveSetter) match.
func (e *RecursiveSetterError) Is(target error) bool {
	return target == ErrRecursiveSetter
}
