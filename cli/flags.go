package cli

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/i2y/terse/command"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// binding ties one schema flag to the pflag storage holding its value.
type binding struct {
	flag  command.Flag
	value func() any
}

func bindFlags(fs *pflag.FlagSet, schema *command.ArgSchema) ([]binding, error) {
	flags := schema.Flags()
	bindings := make([]binding, 0, len(flags))
	for _, f := range flags {
		b, err := bindFlag(fs, f)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func bindFlag(fs *pflag.FlagSet, f command.Flag) (binding, error) {
	b := binding{flag: f}
	vt := f.ValueType()
	name, usage := f.Name, f.Doc

	if vt == durationType {
		b.value = deref(fs.Duration(name, 0, usage))
		return b, nil
	}
	if reflect.PointerTo(vt).Implements(textUnmarshalerType) {
		tv := newTextValue(vt, strings.TrimPrefix(f.TypeExpr, "*"))
		fs.Var(tv, name, usage)
		b.value = tv.get
		return b, nil
	}

	switch vt.Kind() { //nolint:exhaustive // Unsupported kinds handled in default case
	case reflect.String:
		b.value = deref(fs.String(name, "", usage))
	case reflect.Bool:
		b.value = deref(fs.Bool(name, false, usage))
	case reflect.Int:
		b.value = deref(fs.Int(name, 0, usage))
	case reflect.Int8:
		b.value = deref(fs.Int8(name, 0, usage))
	case reflect.Int16:
		b.value = deref(fs.Int16(name, 0, usage))
	case reflect.Int32:
		b.value = deref(fs.Int32(name, 0, usage))
	case reflect.Int64:
		b.value = deref(fs.Int64(name, 0, usage))
	case reflect.Uint:
		b.value = deref(fs.Uint(name, 0, usage))
	case reflect.Uint8:
		b.value = deref(fs.Uint8(name, 0, usage))
	case reflect.Uint16:
		b.value = deref(fs.Uint16(name, 0, usage))
	case reflect.Uint32:
		b.value = deref(fs.Uint32(name, 0, usage))
	case reflect.Uint64:
		b.value = deref(fs.Uint64(name, 0, usage))
	case reflect.Float32:
		b.value = deref(fs.Float32(name, 0, usage))
	case reflect.Float64:
		b.value = deref(fs.Float64(name, 0, usage))
	case reflect.Slice:
		switch vt.Elem().Kind() { //nolint:exhaustive // Only string and int slices are bindable
		case reflect.String:
			b.value = deref(fs.StringSlice(name, nil, usage))
		case reflect.Int:
			b.value = deref(fs.IntSlice(name, nil, usage))
		default:
			return b, fmt.Errorf("flag --%s: unsupported type %s", name, f.TypeExpr)
		}
	default:
		return b, fmt.Errorf("flag --%s: unsupported type %s", name, f.TypeExpr)
	}

	return b, nil
}

// apply copies the parsed flag into vals. Absent optional flags stay unset
// so the command receives nil; absent switches are false.
func (b binding) apply(fs *pflag.FlagSet, vals *command.Values) error {
	changed := fs.Changed(b.flag.Name)
	if !changed && b.flag.Optional {
		return nil
	}

	v := b.value()
	if changed && b.flag.Rule != "" {
		if err := command.Validator().Var(v, b.flag.Rule); err != nil {
			return fmt.Errorf("invalid value for --%s: %w", b.flag.Name, err)
		}
	}
	return vals.Set(b.flag.Name, v)
}

func deref[T any](p *T) func() any {
	return func() any { return *p }
}

// textValue adapts an encoding.TextUnmarshaler to pflag.Value.
type textValue struct {
	ptr      reflect.Value
	typeName string
}

func newTextValue(t reflect.Type, typeName string) *textValue {
	return &textValue{ptr: reflect.New(t), typeName: typeName}
}

func (v *textValue) String() string {
	if m, ok := v.ptr.Interface().(encoding.TextMarshaler); ok {
		if text, err := m.MarshalText(); err == nil {
			return string(text)
		}
	}
	return ""
}

func (v *textValue) Set(s string) error {
	return v.ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
}

func (v *textValue) Type() string {
	return v.typeName
}

func (v *textValue) get() any {
	return v.ptr.Elem().Interface()
}
