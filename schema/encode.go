package schema

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/i2y/terse/command"
	"github.com/i2y/terse/naming"
)

// Encode converts one invocation's arguments into a message of the schema
// DescribeFile produced for root. Unset optional arguments are left unset.
func Encode(fd protoreflect.FileDescriptor, root command.Module, args command.Args) (*dynamicpb.Message, error) {
	if root == nil {
		return nil, ErrNilModule
	}
	md := fd.Messages().ByName(protoreflect.Name(root.Label()))
	if md == nil {
		return nil, fmt.Errorf("schema: %s has no message %s", fd.Path(), root.Label())
	}

	msg := dynamicpb.NewMessage(md)
	if err := encodeModule(msg, root, args); err != nil {
		return nil, err
	}
	return msg, nil
}

func encodeModule(msg protoreflect.Message, m command.Module, args command.Args) error {
	switch m := m.(type) {
	case *command.Leaf:
		vals, ok := args.(*command.Values)
		if !ok || vals == nil {
			return fmt.Errorf("schema: %s: arguments %T are not command values", m.Name(), args)
		}
		fields := msg.Descriptor().Fields()
		for _, f := range m.Schema().Flags() {
			v, ok := vals.Get(f.Name)
			if !ok {
				continue
			}
			fd := fields.ByName(protoreflect.Name(f.Name))
			if fd == nil {
				return fmt.Errorf("schema: %s: no field for --%s", m.Name(), f.Name)
			}
			if err := setField(msg, fd, reflect.ValueOf(v)); err != nil {
				return fmt.Errorf("schema: %s: --%s: %w", m.Name(), f.Name, err)
			}
		}
		return nil

	case *command.Group:
		sel, ok := args.(*command.Selection)
		if !ok || sel == nil {
			return fmt.Errorf("schema: %s: arguments %T are not a subcommand selection", m.Name(), args)
		}
		v, ok := m.Variant(sel.Label)
		if !ok {
			return fmt.Errorf("schema: %s: unknown subcommand %q", m.Name(), sel.Label)
		}
		fd := msg.Descriptor().Fields().ByName(protoreflect.Name(naming.Snake(v.Label)))
		if fd == nil {
			return fmt.Errorf("schema: %s: no field for subcommand %s", m.Name(), v.Label)
		}
		return encodeModule(msg.Mutable(fd).Message(), v.Module, sel.Args)

	default:
		return fmt.Errorf("schema: unsupported module %T", m)
	}
}

func setField(msg protoreflect.Message, fd protoreflect.FieldDescriptor, rv reflect.Value) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if fd.IsList() {
		list := msg.Mutable(fd).List()
		for i := 0; i < rv.Len(); i++ {
			pv, err := scalarValue(fd, rv.Index(i))
			if err != nil {
				return err
			}
			list.Append(pv)
		}
		return nil
	}

	if fd.Kind() == protoreflect.MessageKind {
		if !IsDurationType(rv.Type()) {
			return fmt.Errorf("cannot encode %s as %s", rv.Type(), fd.Message().FullName())
		}
		d := time.Duration(rv.Int())
		durationMsg := msg.Mutable(fd).Message()
		durationFields := durationMsg.Descriptor().Fields()
		durationMsg.Set(durationFields.ByName("seconds"), protoreflect.ValueOfInt64(int64(d/time.Second)))
		durationMsg.Set(durationFields.ByName("nanos"), protoreflect.ValueOfInt32(int32(d%time.Second))) // #nosec G115 -- remainder of a second
		return nil
	}

	pv, err := scalarValue(fd, rv)
	if err != nil {
		return err
	}
	msg.Set(fd, pv)
	return nil
}

func scalarValue(fd protoreflect.FieldDescriptor, rv reflect.Value) (protoreflect.Value, error) {
	if IsTextType(rv.Type()) {
		return protoreflect.ValueOfString(textOf(rv)), nil
	}

	switch fd.Kind() { //nolint:exhaustive // Only kinds produced by Describe are handled
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(rv.String()), nil
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(rv.Bool()), nil
	case protoreflect.Int32Kind:
		return protoreflect.ValueOfInt32(int32(rv.Int())), nil // #nosec G115 -- int8, int16 or int32 source
	case protoreflect.Int64Kind:
		return protoreflect.ValueOfInt64(rv.Int()), nil
	case protoreflect.Uint32Kind:
		return protoreflect.ValueOfUint32(uint32(rv.Uint())), nil // #nosec G115 -- uint8, uint16 or uint32 source
	case protoreflect.Uint64Kind:
		return protoreflect.ValueOfUint64(rv.Uint()), nil
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(float32(rv.Float())), nil
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(rv.Float()), nil
	default:
		return protoreflect.Value{}, fmt.Errorf("unsupported field kind %v", fd.Kind())
	}
}

// textOf renders a text type through MarshalText when it has one.
func textOf(rv reflect.Value) string {
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	if m, ok := p.Interface().(encoding.TextMarshaler); ok {
		if text, err := m.MarshalText(); err == nil {
			return string(text)
		}
	}
	return fmt.Sprint(rv.Interface())
}
