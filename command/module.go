package command

import (
	"context"
	"io"
)

// Module is a built command: either a *Leaf wrapping a single function or a
// *Group dispatching to child modules. Both expose the same shape, so a
// Group can be composed into another Group to any depth.
type Module interface {
	// Name is the identifier the module was built or composed under.
	Name() string
	// Label is the upper camel case variant label derived from Name.
	Label() string
	// Token is the kebab case name users type to select this module.
	Token() string
	// Doc returns the module's documentation lines.
	Doc() []string
	// NewArgs returns a fresh, empty argument value for one invocation.
	NewArgs() Args
	// Run invokes the module with parsed arguments, writing results to w.
	Run(ctx context.Context, w io.Writer, args Args) error

	isModule()
}

func copyLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
