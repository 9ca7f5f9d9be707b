package compile

import "fmt"

// Type is the minimal type representation the Linker needs to compare
// an import against its matching export. The Mini typechecker that
// produces these is out of scope; this package only needs Type values
// to be constructible and comparable.
type Type struct {
	Name     string // leaf type name, e.g. "Any", "Int", "Tuple"; empty if IsFunc
	IsFunc   bool
	IsImpure bool
	ArgTypes []Type
	RetType  *Type
}

// Any is the universal leaf type Mini uses when no stronger type is
// known.
func Any() Type { return Type{Name: "Any"} }

// Func constructs a function type, mirroring mavm's
// Type::Func(is_impure, arg_types, ret_type).
func Func(isImpure bool, argTypes []Type, retType Type) Type {
	return Type{IsFunc: true, IsImpure: isImpure, ArgTypes: argTypes, RetType: &retType}
}

// Equal is structural equality, used by the Linker to compare an
// import's declared signature against its resolved export's type.
func (t Type) Equal(o Type) bool {
	if t.IsFunc != o.IsFunc {
		return false
	}
	if !t.IsFunc {
		return t.Name == o.Name
	}
	if t.IsImpure != o.IsImpure || len(t.ArgTypes) != len(o.ArgTypes) {
		return false
	}
	for i := range t.ArgTypes {
		if !t.ArgTypes[i].Equal(o.ArgTypes[i]) {
			return false
		}
	}
	return t.RetType.Equal(*o.RetType)
}

func (t Type) String() string {
	if !t.IsFunc {
		return t.Name
	}
	return fmt.Sprintf("func(impure=%v, %v) -> %v", t.IsImpure, t.ArgTypes, *t.RetType)
}
