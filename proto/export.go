// Package proto renders command tree descriptors as .proto source.
package proto

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/v2/protoprint"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/i2y/terse/command"
	"github.com/i2y/terse/schema"
)

// ExportOptions configures proto file export.
type ExportOptions struct {
	// IncludeComments keeps documentation comments in the output
	IncludeComments bool
	// SortElements sorts messages, fields, etc. alphabetically
	SortElements bool
	// Indent configures the indentation string (default: 2 spaces)
	Indent string
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeComments: true,
		SortElements:    false,
		Indent:          "  ",
	}
}

// Exporter prints file descriptors as .proto source.
type Exporter struct {
	options ExportOptions
	printer *protoprint.Printer
}

// NewExporter creates a new proto exporter.
func NewExporter(opts ExportOptions) *Exporter {
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	printer := &protoprint.Printer{
		Compact:                      false,
		SortElements:                 opts.SortElements,
		Indent:                       opts.Indent,
		PreferMultiLineStyleComments: false,
	}
	if !opts.IncludeComments {
		printer.OmitComments = protoprint.CommentsAll
	}

	return &Exporter{
		options: opts,
		printer: printer,
	}
}

// ExportModule describes the tree rooted at root and prints it.
func (e *Exporter) ExportModule(root command.Module, opts schema.Options) (string, error) {
	fdp, err := schema.Describe(root, opts)
	if err != nil {
		return "", err
	}
	return e.ExportFileDescriptorProto(fdp)
}

// ExportFileDescriptorProto exports a single proto file.
func (e *Exporter) ExportFileDescriptorProto(fdp *descriptorpb.FileDescriptorProto) (string, error) {
	files, err := e.ExportFileDescriptorSet(&descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{fdp},
	})
	if err != nil {
		return "", err
	}
	return files[fdp.GetName()], nil
}

// ExportFileDescriptorSet exports every file of fdset, keyed by path.
// Well-known imports are resolved but not exported.
func (e *Exporter) ExportFileDescriptorSet(fdset *descriptorpb.FileDescriptorSet) (map[string]string, error) {
	files, err := protodesc.NewFiles(withWellKnownTypes(fdset))
	if err != nil {
		return nil, fmt.Errorf("failed to create file descriptors: %w", err)
	}

	result := make(map[string]string, len(fdset.File))
	for _, fdp := range fdset.File {
		fd, err := files.FindFileByPath(fdp.GetName())
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", fdp.GetName(), err)
		}

		var buf bytes.Buffer
		if err := e.printer.PrintProtoFile(fd, &buf); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", fd.Path(), err)
		}
		result[fd.Path()] = fixProto3Optional(buf.String(), fd)
	}

	return result, nil
}

// withWellKnownTypes prepends the descriptors of imported well-known types
// that fdset does not carry itself.
func withWellKnownTypes(fdset *descriptorpb.FileDescriptorSet) *descriptorpb.FileDescriptorSet {
	existing := make(map[string]bool, len(fdset.File))
	for _, file := range fdset.File {
		existing[file.GetName()] = true
	}

	var missing []string
	for _, file := range fdset.File {
		for _, dep := range file.Dependency {
			if !existing[dep] && strings.HasPrefix(dep, "google/protobuf/") {
				existing[dep] = true
				missing = append(missing, dep)
			}
		}
	}
	sort.Strings(missing)

	result := &descriptorpb.FileDescriptorSet{
		File: make([]*descriptorpb.FileDescriptorProto, 0, len(missing)+len(fdset.File)),
	}
	for _, path := range missing {
		if fd, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
			result.File = append(result.File, protodesc.ToFileDescriptorProto(fd))
		}
	}
	result.File = append(result.File, fdset.File...)

	return result
}

// fixProto3Optional makes sure every proto3 optional field is printed with
// its 'optional' keyword; protoprint v2.0.0-beta.2 can drop it.
func fixProto3Optional(content string, fd protoreflect.FileDescriptor) string {
	if fd.Syntax() != protoreflect.Proto3 {
		return content
	}

	var decls []string
	var walk func(protoreflect.MessageDescriptors)
	walk = func(msgs protoreflect.MessageDescriptors) {
		for i := 0; i < msgs.Len(); i++ {
			msg := msgs.Get(i)
			fields := msg.Fields()
			for j := 0; j < fields.Len(); j++ {
				if f := fields.Get(j); f.HasOptionalKeyword() {
					decls = append(decls, fmt.Sprintf("%s %s = %d", fieldTypeName(f), f.Name(), f.Number()))
				}
			}
			walk(msg.Messages())
		}
	}
	walk(fd.Messages())
	if len(decls) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	for _, decl := range decls {
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if declares(trimmed, decl) {
				indent := line[:len(line)-len(trimmed)]
				lines[i] = indent + "optional " + trimmed
				break
			}
			if declares(trimmed, "optional "+decl) {
				break
			}
		}
	}

	return strings.Join(lines, "\n")
}

// declares reports whether line starts with the field declaration decl.
func declares(line, decl string) bool {
	rest, ok := strings.CutPrefix(line, decl)
	return ok && (strings.HasPrefix(rest, ";") || strings.HasPrefix(rest, " "))
}

// fieldTypeName returns the type as protoprint writes it in a field declaration.
func fieldTypeName(f protoreflect.FieldDescriptor) string {
	switch f.Kind() { //nolint:exhaustive // Scalars handled in default case
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return qualifiedName(f.ParentFile(), f.Message().FullName())
	case protoreflect.EnumKind:
		return qualifiedName(f.ParentFile(), f.Enum().FullName())
	default:
		return f.Kind().String()
	}
}

// qualifiedName drops the file's package prefix from names in the same package.
func qualifiedName(fd protoreflect.FileDescriptor, name protoreflect.FullName) string {
	pkg := string(fd.Package())
	if pkg != "" && strings.HasPrefix(string(name), pkg+".") {
		return strings.TrimPrefix(string(name), pkg+".")
	}
	return string(name)
}
