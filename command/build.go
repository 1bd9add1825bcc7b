package command

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/i2y/terse/internal/ctxlog"
	"github.com/i2y/terse/naming"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// reservedFlags are declared on every command by the argument parser.
var reservedFlags = map[string]bool{
	"help":    true,
	"version": true,
}

// Leaf is a command module wrapping a single function.
type Leaf struct {
	sig      Signature
	fn       reflect.Value
	schema   *ArgSchema
	label    string
	token    string
	hasValue bool
	hasError bool
}

func (*Leaf) isModule() {}

// Build binds a signature to the function it describes and derives the
// command's argument schema: one long-form flag per parameter, in
// declaration order.
//
// fn must take the signature's parameters (after an optional leading
// context.Context) and return (), (T), (error) or (T, error).
func Build(sig Signature, fn any) (*Leaf, error) {
	if err := Validator().Var(sig.Name, "required,ident"); err != nil {
		return nil, NewErrorf(CodeInvalidSignature, "invalid command name %q", sig.Name).WithCause(err)
	}

	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, NewErrorf(CodeInvalidSignature, "%s: %T is not a function", sig.Name, fn)
	}
	if rv.IsNil() {
		return nil, NewErrorf(CodeInvalidSignature, "%s: function is nil", sig.Name)
	}
	rt := rv.Type()

	offset := 0
	if sig.Context {
		if rt.NumIn() == 0 || rt.In(0) != contextType {
			return nil, NewErrorf(CodeInvalidSignature, "%s: function does not take a leading context.Context", sig.Name)
		}
		offset = 1
	}
	if rt.NumIn()-offset != len(sig.Params) {
		return nil, NewErrorf(CodeInvalidSignature, "%s: signature declares %d parameters but function takes %d",
			sig.Name, len(sig.Params), rt.NumIn()-offset)
	}

	hasValue, hasError, err := resultShape(rt)
	if err != nil {
		return nil, NewErrorf(CodeInvalidSignature, "%s: %v", sig.Name, err)
	}

	params, err := bindParams(sig, rt, offset)
	if err != nil {
		return nil, err
	}

	built := sig
	built.Params = params
	built.Doc = copyLines(sig.Doc)

	label := naming.Label(sig.Name)
	return &Leaf{
		sig:      built,
		fn:       rv,
		schema:   newArgSchema(params),
		label:    label,
		token:    naming.Kebab(label),
		hasValue: hasValue,
		hasError: hasError,
	}, nil
}

// bindParams checks every parameter is a simple named binding of a
// supported type and attaches the function's parameter types.
func bindParams(sig Signature, rt reflect.Type, offset int) ([]Parameter, error) {
	params := make([]Parameter, len(sig.Params))
	seen := make(map[string]bool, len(sig.Params))

	for i, p := range sig.Params {
		if err := Validator().Struct(p); err != nil || p.Variadic {
			e := NewErrorf(CodeInvalidArgument, "invalid cli argument: %s", p.source())
			if err != nil {
				e = e.WithCause(err)
			}
			return nil, e
		}
		if seen[p.Name] {
			return nil, NewErrorf(CodeInvalidArgument, "invalid cli argument: %s: duplicate parameter name", p.source())
		}
		seen[p.Name] = true
		if reservedFlags[p.Name] {
			return nil, NewErrorf(CodeInvalidArgument, "invalid cli argument: %s: --%s is reserved", p.source(), p.Name)
		}

		pt := rt.In(offset + i)
		if rt.IsVariadic() && offset+i == rt.NumIn()-1 {
			return nil, NewErrorf(CodeInvalidArgument, "invalid cli argument: %s: variadic parameters cannot be flags", p.source())
		}
		if p.Optional != (pt.Kind() == reflect.Ptr) {
			return nil, NewErrorf(CodeInvalidArgument, "invalid cli argument: %s: declared type does not match function parameter type %s",
				p.source(), pt)
		}
		if !SupportedType(pt) {
			return nil, NewErrorf(CodeInvalidArgument, "invalid cli argument: %s: unsupported flag type %s", p.source(), pt)
		}

		p.Type = pt
		params[i] = p
	}

	return params, nil
}

func resultShape(rt reflect.Type) (hasValue, hasError bool, err error) {
	switch rt.NumOut() {
	case 0:
		return false, false, nil
	case 1:
		if rt.Out(0) == errorType {
			return false, true, nil
		}
		return true, false, nil
	case 2:
		if rt.Out(1) != errorType {
			return false, false, fmt.Errorf("second result must be error, got %s", rt.Out(1))
		}
		return true, true, nil
	default:
		return false, false, fmt.Errorf("functions may return at most a value and an error, got %d results", rt.NumOut())
	}
}

// Name returns the command identifier.
func (l *Leaf) Name() string { return l.sig.Name }

// Label returns the derived variant label.
func (l *Leaf) Label() string { return l.label }

// Token returns the command-line token.
func (l *Leaf) Token() string { return l.token }

// Doc returns the documentation lines, unmodified.
func (l *Leaf) Doc() []string { return copyLines(l.sig.Doc) }

// Signature returns the bound signature.
func (l *Leaf) Signature() Signature {
	sig := l.sig
	sig.Params = append([]Parameter(nil), l.sig.Params...)
	sig.Doc = copyLines(l.sig.Doc)
	return sig
}

// Schema returns the command's argument schema.
func (l *Leaf) Schema() *ArgSchema { return l.schema }

// NewArgs returns empty values for one invocation.
func (l *Leaf) NewArgs() Args {
	return l.NewValues()
}

// NewValues is NewArgs with the concrete type.
func (l *Leaf) NewValues() *Values {
	return &Values{
		command: l.sig.Name,
		schema:  l.schema,
		vals:    make([]reflect.Value, l.schema.Len()),
	}
}

// Run calls the wrapped function with the values in declaration order and
// writes its result to w as a single line. Unset optional parameters are
// passed as nil. An error returned by the function is returned from Run.
func (l *Leaf) Run(ctx context.Context, w io.Writer, args Args) error {
	vals, ok := args.(*Values)
	if !ok || vals == nil || vals.schema != l.schema {
		return fmt.Errorf("command %s: arguments %T were not created by this command", l.sig.Name, args)
	}

	in := make([]reflect.Value, 0, len(vals.vals)+1)
	if l.sig.Context {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, f := range l.schema.flags {
		v := vals.vals[i]
		if !v.IsValid() {
			if f.Required {
				return fmt.Errorf("command %s: missing required argument --%s", l.sig.Name, f.Name)
			}
			v = reflect.Zero(f.Type)
		}
		in = append(in, v)
	}

	ctxlog.FromContext(ctx).Debug("running command", "command", l.sig.Name, "args", len(in))
	out := l.fn.Call(in)

	if l.hasError {
		if errv := out[len(out)-1]; !errv.IsNil() {
			return fmt.Errorf("%s: %w", l.sig.Name, errv.Interface().(error))
		}
	}
	if l.hasValue {
		if _, err := fmt.Fprintln(w, out[0].Interface()); err != nil {
			return fmt.Errorf("%s: failed to write result: %w", l.sig.Name, err)
		}
	}
	return nil
}
