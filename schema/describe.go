// Package schema describes command trees as protobuf descriptors: every
// leaf's arguments become a message with one field per flag, and every group
// becomes a message whose oneof selects exactly one subcommand.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	// Import well-known types to register them
	_ "google.golang.org/protobuf/types/known/durationpb"

	"github.com/i2y/terse/command"
	"github.com/i2y/terse/naming"
)

// ErrNilModule is returned when there is no command tree to describe.
var ErrNilModule = errors.New("schema: nil module")

// Options configures the generated file.
type Options struct {
	// PackageName is the protobuf package. Defaults to "terse." plus the
	// snake case root name.
	PackageName string
	// FileName defaults to the snake case root name with a ".proto" suffix.
	FileName string
}

func (o Options) withDefaults(root command.Module) Options {
	if o.PackageName == "" {
		o.PackageName = "terse." + naming.Snake(root.Name())
	}
	if o.FileName == "" {
		o.FileName = naming.Snake(root.Name()) + ".proto"
	}
	return o
}

// Describe builds a proto3 file descriptor for the tree rooted at root. The
// root is the file's only top-level message; groups nest their children's
// messages. Documentation lines become leading comments.
func Describe(root command.Module, opts Options) (*descriptorpb.FileDescriptorProto, error) {
	if root == nil {
		return nil, ErrNilModule
	}
	opts = opts.withDefaults(root)

	d := &describer{
		imports:  make(map[string]bool),
		comments: NewSourceCodeInfoBuilder(),
		path:     NewPathBuilder(),
	}

	d.path.Push(fileMessageTypeField, 0)
	msg, err := d.message(root, "."+opts.PackageName)
	if err != nil {
		return nil, err
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:           ptr(opts.FileName),
		Package:        ptr(opts.PackageName),
		Syntax:         ptr("proto3"),
		MessageType:    []*descriptorpb.DescriptorProto{msg},
		SourceCodeInfo: d.comments.Build(),
	}
	for dep := range d.imports {
		fdp.Dependency = append(fdp.Dependency, dep)
	}
	sort.Strings(fdp.Dependency)

	return fdp, nil
}

// DescribeFile is like Describe but also resolves and validates the result.
func DescribeFile(root command.Module, opts Options) (protoreflect.FileDescriptor, error) {
	fdp, err := Describe(root, opts)
	if err != nil {
		return nil, err
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to create file descriptor: %w", err)
	}
	return fd, nil
}

type describer struct {
	imports  map[string]bool
	comments *SourceCodeInfoBuilder
	path     *PathBuilder
}

// message describes m; d.path already points at the message's location.
func (d *describer) message(m command.Module, scope string) (*descriptorpb.DescriptorProto, error) {
	d.comments.AddLocation(d.path.Build(), docComment(m.Doc()))

	switch m := m.(type) {
	case *command.Leaf:
		return d.leafMessage(m)
	case *command.Group:
		return d.groupMessage(m, scope)
	default:
		return nil, fmt.Errorf("schema: unsupported module %T", m)
	}
}

func (d *describer) leafMessage(l *command.Leaf) (*descriptorpb.DescriptorProto, error) {
	msg := &descriptorpb.DescriptorProto{Name: ptr(l.Label())}

	flags := l.Schema().Flags()
	taken := make(map[string]bool, len(flags))
	for _, f := range flags {
		taken[f.Name] = true
	}

	for i, f := range flags {
		field, err := d.field(f, int32(i+1))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name(), err)
		}

		// proto3 optional fields live in a synthetic oneof, declared after
		// any real oneof.
		if f.Optional && field.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			field.Proto3Optional = ptr(true)
			field.OneofIndex = ptr(int32(len(msg.OneofDecl)))
			msg.OneofDecl = append(msg.OneofDecl, &descriptorpb.OneofDescriptorProto{
				Name: ptr(freeName("_"+f.Name, taken)),
			})
		}
		msg.Field = append(msg.Field, field)

		d.path.Push(messageFieldField, int32(i))
		d.comments.AddLocation(d.path.Build(), &CommentInfo{Leading: f.Doc, Trailing: ruleComment(f.Rule)})
		d.path.Pop(2)
	}

	return msg, nil
}

func (d *describer) groupMessage(g *command.Group, scope string) (*descriptorpb.DescriptorProto, error) {
	full := scope + "." + g.Label()
	variants := g.Variants()

	taken := make(map[string]bool, len(variants))
	for _, v := range variants {
		taken[naming.Snake(v.Label)] = true
	}

	msg := &descriptorpb.DescriptorProto{
		Name: ptr(g.Label()),
		OneofDecl: []*descriptorpb.OneofDescriptorProto{
			{Name: ptr(freeName("command", taken))},
		},
	}

	// The group's own docs also describe its oneof.
	d.path.Push(messageOneofDeclField, 0)
	d.comments.AddLocation(d.path.Build(), docComment(g.Doc()))
	d.path.Pop(2)

	for j, v := range variants {
		d.path.Push(messageNestedTypeField, int32(j))
		nested, err := d.message(v.Module, full)
		d.path.Pop(2)
		if err != nil {
			return nil, err
		}
		msg.NestedType = append(msg.NestedType, nested)

		msg.Field = append(msg.Field, &descriptorpb.FieldDescriptorProto{
			Name:       ptr(naming.Snake(v.Label)),
			Number:     ptr(int32(j + 1)),
			Label:      labelPtr(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
			Type:       typePtr(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE),
			TypeName:   ptr(full + "." + v.Label),
			OneofIndex: ptr(int32(0)),
		})

		if len(v.Doc) > 0 {
			d.path.Push(messageFieldField, int32(j))
			d.comments.AddLocation(d.path.Build(), &CommentInfo{Leading: v.Doc[0]})
			d.path.Pop(2)
		}
	}

	return msg, nil
}

// field maps one flag to a field. Slices are repeated; time.Duration uses
// the well-known Duration message; text types are strings.
func (d *describer) field(f command.Flag, number int32) (*descriptorpb.FieldDescriptorProto, error) {
	fieldProto := &descriptorpb.FieldDescriptorProto{
		Name:   ptr(f.Name),
		Number: ptr(number),
		Label:  labelPtr(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
	}

	vt := f.ValueType()
	if vt.Kind() == reflect.Slice {
		fieldProto.Label = labelPtr(descriptorpb.FieldDescriptorProto_LABEL_REPEATED)
		vt = vt.Elem()
	}

	switch {
	case IsDurationType(vt):
		d.imports[DurationProto] = true
		fieldProto.Type = typePtr(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
		fieldProto.TypeName = ptr(WellKnownDuration)
	case IsTextType(vt):
		fieldProto.Type = typePtr(descriptorpb.FieldDescriptorProto_TYPE_STRING)
	default:
		t, ok := scalarType(vt)
		if !ok {
			return nil, fmt.Errorf("unsupported field type %s for --%s", f.TypeExpr, f.Name)
		}
		fieldProto.Type = typePtr(t)
	}

	return fieldProto, nil
}

// freeName prefixes name with underscores until it no longer collides with
// a name in taken, then reserves it.
func freeName(name string, taken map[string]bool) string {
	for taken[name] {
		name = "_" + name
	}
	taken[name] = true
	return name
}

func ruleComment(rule string) string {
	if rule == "" {
		return ""
	}
	return "validate: " + rule
}

func ptr[T any](v T) *T {
	return &v
}

func labelPtr(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}

func typePtr(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}
