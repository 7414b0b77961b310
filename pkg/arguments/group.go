package arguments

// GroupMode selects how a GroupArgument combines its children.
type GroupMode int

const (
	// ModeOr accepts the first child (in declaration order) that validates.
	ModeOr GroupMode = iota

	// ModeAnd requires every child to validate in order against the
	// shrinking remainder.
	ModeAnd
)

// GroupArgument composes several arguments into one slot. OR groups model
// "one of several shapes" (a number or a keyword); AND groups model a fixed
// tuple validated as a unit.
//
// Resolved child values are flattened under each child's own name into the
// same result map as top-level arguments. Collisions between child names and
// sibling argument names are not detected and simply overwrite.
type GroupArgument struct {
	base
	mode     GroupMode
	children []Argument
}

// Or creates a group that accepts the first matching child.
func Or(name string, children ...Argument) *GroupArgument {
	return &GroupArgument{base: newBase(name), mode: ModeOr, children: children}
}

// And creates a group that requires every child in order.
func And(name string, children ...Argument) *GroupArgument {
	return &GroupArgument{base: newBase(name), mode: ModeAnd, children: children}
}

// Display sets the name rendered in usage strings.
func (a *GroupArgument) Display(name string) *GroupArgument {
	a.displayName = name
	return a
}

// Optional makes the whole group fall back to the given value when it fails
// to parse.
func (a *GroupArgument) Optional(fallback any) *GroupArgument {
	a.setOptional(fallback)
	return a
}

// Mode returns the combinator mode.
func (a *GroupArgument) Mode() GroupMode { return a.mode }

// Children returns the composed arguments in declaration order.
func (a *GroupArgument) Children() []Argument { return a.children }

// Validate applies the combinator. The returned value is a map of child
// name to child value, ready for flattening via Merge.
func (a *GroupArgument) Validate(remainder string) (any, string, error) {
	switch a.mode {
	case ModeAnd:
		return a.validateAnd(remainder)
	default:
		return a.validateOr(remainder)
	}
}

func (a *GroupArgument) validateOr(remainder string) (any, string, error) {
	causes := make([]*ParseError, 0, len(a.children))
	for _, child := range a.children {
		value, rest, err := child.Validate(remainder)
		if err == nil {
			result := make(map[string]any, 1)
			Merge(result, child, value)
			return result, rest, nil
		}
		if perr, ok := err.(*ParseError); ok {
			causes = append(causes, perr)
		}
	}
	return nil, "", &ParseError{
		Argument: a,
		Message:  "no alternative matched",
		Causes:   causes,
	}
}

func (a *GroupArgument) validateAnd(remainder string) (any, string, error) {
	result := make(map[string]any, len(a.children))
	rest := remainder
	for _, child := range a.children {
		value, next, err := child.Validate(rest)
		if err != nil {
			return nil, "", err
		}
		Merge(result, child, value)
		rest = next
	}
	return result, rest, nil
}
