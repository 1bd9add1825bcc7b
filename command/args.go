package command

import (
	"encoding"
	"fmt"
	"reflect"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	stringSliceType     = reflect.TypeOf([]string(nil))
	intSliceType        = reflect.TypeOf([]int(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Flag is the long-form flag declaration derived from one Parameter.
type Flag struct {
	// Name is the flag's long name, identical to the parameter name.
	Name string
	// TypeExpr is the parameter's declared type expression.
	TypeExpr string
	// Type is the parameter type. Optional flags keep their pointer type so
	// that absence reaches the command as nil.
	Type reflect.Type
	// Required flags must be supplied on every invocation. Parameters of
	// pointer type are optional; plain bool parameters are switches whose
	// absence means false.
	Required bool
	Optional bool
	Doc      string
	Rule     string
}

// ValueType returns the type of a single supplied value: the pointee for
// optional flags, the parameter type otherwise.
func (f Flag) ValueType() reflect.Type {
	if f.Optional {
		return f.Type.Elem()
	}
	return f.Type
}

// IsSwitch reports whether the flag takes no value on the command line.
func (f Flag) IsSwitch() bool {
	return f.ValueType().Kind() == reflect.Bool
}

// ArgSchema maps parameter names to flag declarations, in declaration order.
type ArgSchema struct {
	flags []Flag
	index map[string]int
}

func newArgSchema(params []Parameter) *ArgSchema {
	s := &ArgSchema{
		flags: make([]Flag, 0, len(params)),
		index: make(map[string]int, len(params)),
	}
	for _, p := range params {
		s.index[p.Name] = len(s.flags)
		s.flags = append(s.flags, Flag{
			Name:     p.Name,
			TypeExpr: p.TypeExpr,
			Type:     p.Type,
			Optional: p.Optional,
			Required: !p.Optional && p.Type.Kind() != reflect.Bool,
			Doc:      p.Doc,
			Rule:     p.Rule,
		})
	}
	return s
}

// Flags returns the flag declarations in declaration order.
func (s *ArgSchema) Flags() []Flag {
	out := make([]Flag, len(s.flags))
	copy(out, s.flags)
	return out
}

// Len returns the number of flags.
func (s *ArgSchema) Len() int {
	return len(s.flags)
}

// Lookup returns the flag declared for a parameter name.
func (s *ArgSchema) Lookup(name string) (Flag, bool) {
	i, ok := s.index[name]
	if !ok {
		return Flag{}, false
	}
	return s.flags[i], true
}

// Args is a parsed argument value consumed by a Module's Run. It is either a
// leaf's *Values or a group's *Selection.
type Args interface {
	isArgs()
}

// Values holds one invocation's parameter values for a leaf command.
type Values struct {
	command string
	schema  *ArgSchema
	vals    []reflect.Value
}

func (*Values) isArgs() {}

// Command returns the identifier of the command these values belong to.
func (v *Values) Command() string {
	return v.command
}

// Set assigns a parameter value. The value must be assignable to the
// parameter type or share its kind; optional parameters also accept the
// pointee type, and nil clears them.
func (v *Values) Set(name string, value any) error {
	i, ok := v.schema.index[name]
	if !ok {
		return fmt.Errorf("command %s has no argument --%s", v.command, name)
	}
	f := v.schema.flags[i]

	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		if !f.Optional {
			return fmt.Errorf("argument --%s of %s is required and cannot be nil", name, v.command)
		}
		v.vals[i] = reflect.Zero(f.Type)
		return nil
	}

	if conv, ok := coerce(rv, f.Type); ok {
		v.vals[i] = conv
		return nil
	}
	if f.Optional {
		if conv, ok := coerce(rv, f.Type.Elem()); ok {
			ptr := reflect.New(f.Type.Elem())
			ptr.Elem().Set(conv)
			v.vals[i] = ptr
			return nil
		}
	}

	return fmt.Errorf("cannot use %T as %s for argument --%s of %s", value, f.TypeExpr, name, v.command)
}

// Get returns a parameter value and whether it has been set.
func (v *Values) Get(name string) (any, bool) {
	i, ok := v.schema.index[name]
	if !ok || !v.vals[i].IsValid() {
		return nil, false
	}
	return v.vals[i].Interface(), true
}

// IsSet reports whether the parameter has been assigned.
func (v *Values) IsSet(name string) bool {
	i, ok := v.schema.index[name]
	return ok && v.vals[i].IsValid()
}

func coerce(rv reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if rv.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out, true
	}
	if rv.Kind() == target.Kind() && rv.Kind() != reflect.Ptr && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), true
	}
	return reflect.Value{}, false
}

// Selection is a group's tagged union value: the label of the selected
// subcommand and that subcommand's arguments.
type Selection struct {
	Label string
	Args  Args
}

func (*Selection) isArgs() {}

// Select builds a Selection for the subcommand with the given label.
func Select(label string, args Args) *Selection {
	return &Selection{Label: label, Args: args}
}

// SupportedType reports whether values of t can be bound to a flag.
func SupportedType(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		if t.Kind() == reflect.Ptr {
			return false
		}
	}
	if t == durationType || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}

	switch t.Kind() { //nolint:exhaustive // Unsupported kinds handled in default case
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t == stringSliceType || t == intSliceType
	default:
		return false
	}
}
