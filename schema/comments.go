package schema

import (
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// CommentInfo holds documentation comments for a proto element.
type CommentInfo struct {
	Leading  string   // Comment appearing before the element
	Trailing string   // Comment appearing after the element on same line
	Detached []string // Detached comment blocks appearing before the element
}

// docComment turns command documentation lines into a leading comment.
func docComment(lines []string) *CommentInfo {
	if len(lines) == 0 {
		return nil
	}
	return &CommentInfo{Leading: strings.Join(lines, "\n")}
}

// PathBuilder tracks the SourceCodeInfo path of the element being described.
type PathBuilder struct {
	path []int32
}

// NewPathBuilder creates a new path builder.
func NewPathBuilder() *PathBuilder {
	return &PathBuilder{
		path: make([]int32, 0, 8),
	}
}

// Push adds a field number or index to the path.
func (p *PathBuilder) Push(fieldNumberOrIndex ...int32) *PathBuilder {
	p.path = append(p.path, fieldNumberOrIndex...)
	return p
}

// Pop removes the last n elements from the path.
func (p *PathBuilder) Pop(n int) *PathBuilder {
	if n > len(p.path) {
		n = len(p.path)
	}
	p.path = p.path[:len(p.path)-n]
	return p
}

// Build returns a copy of the current path.
func (p *PathBuilder) Build() []int32 {
	result := make([]int32, len(p.path))
	copy(result, p.path)
	return result
}

// SourceCodeInfoBuilder collects comment locations for a FileDescriptorProto.
type SourceCodeInfoBuilder struct {
	locations []*descriptorpb.SourceCodeInfo_Location
}

// NewSourceCodeInfoBuilder creates a new SourceCodeInfo builder.
func NewSourceCodeInfoBuilder() *SourceCodeInfoBuilder {
	return &SourceCodeInfoBuilder{}
}

// AddLocation records comment at path. Empty comments and empty paths are ignored.
func (b *SourceCodeInfoBuilder) AddLocation(path []int32, comment *CommentInfo) {
	if comment == nil || (comment.Leading == "" && comment.Trailing == "" && len(comment.Detached) == 0) {
		return
	}
	if len(path) == 0 {
		return
	}

	location := &descriptorpb.SourceCodeInfo_Location{
		Path: path,
		// Descriptors are generated, not parsed, so there is no real span.
		Span: []int32{0, 0, 0, 0},
	}

	if comment.Leading != "" {
		location.LeadingComments = ptr(formatComment(comment.Leading))
	}
	if comment.Trailing != "" {
		location.TrailingComments = ptr(formatComment(comment.Trailing))
	}
	for _, detached := range comment.Detached {
		location.LeadingDetachedComments = append(location.LeadingDetachedComments, formatComment(detached))
	}

	b.locations = append(b.locations, location)
}

// Build creates the SourceCodeInfo, or nil when no comment was added.
func (b *SourceCodeInfoBuilder) Build() *descriptorpb.SourceCodeInfo {
	if len(b.locations) == 0 {
		return nil
	}
	return &descriptorpb.SourceCodeInfo{
		Location: b.locations,
	}
}

// formatComment trims every line and prefixes continuation lines with a
// space so the printed comment lines up after "//".
func formatComment(comment string) string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ""
	}

	lines := strings.Split(comment, "\n")
	var b strings.Builder
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 {
			b.WriteString(line)
			continue
		}
		b.WriteString("\n")
		if line != "" {
			b.WriteString(" " + line)
		}
	}
	return b.String()
}

// Field numbers from descriptor.proto used to build SourceCodeInfo paths.
const (
	fileMessageTypeField   = 4
	messageFieldField      = 2
	messageNestedTypeField = 3
	messageOneofDeclField  = 8
)
