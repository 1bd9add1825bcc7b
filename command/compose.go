package command

import (
	"context"
	"fmt"
	"io"

	"github.com/i2y/terse/internal/ctxlog"
	"github.com/i2y/terse/naming"
)

// Variant is one member of a group's tagged union.
type Variant struct {
	// Label tags the variant; unique among the group's direct children.
	Label string
	// Token is the subcommand name users type.
	Token  string
	Module Module
	// Doc is the child's documentation at composition time.
	Doc []string
}

// Group is a command module that dispatches to one of its children.
type Group struct {
	name     string
	label    string
	token    string
	doc      []string
	variants []Variant
	byLabel  map[string]int
	byToken  map[string]int
}

func (*Group) isModule() {}

// Compose merges already-built modules into a group named name. Children
// keep their declaration order; each is tagged with naming.Label of its
// name, and two children deriving the same label or the same command-line
// token is an error. Group documentation describes the group itself and is
// independent of the children's own documentation, which stays attached to
// their variants.
func Compose(name string, children []Module, doc ...string) (*Group, error) {
	if err := Validator().Var(name, "required,ident"); err != nil {
		return nil, NewErrorf(CodeInvalidIdentifierList, "invalid group name %q", name).WithCause(err)
	}
	if len(children) == 0 {
		return nil, NewErrorf(CodeEmptyGroup, "group %s has no subcommands", name)
	}

	g := &Group{
		name:     name,
		doc:      copyLines(doc),
		variants: make([]Variant, 0, len(children)),
		byLabel:  make(map[string]int, len(children)),
		byToken:  make(map[string]int, len(children)),
	}
	g.label = naming.Label(name)
	g.token = naming.Kebab(g.label)

	for _, child := range children {
		if child == nil {
			return nil, NewErrorf(CodeInvalidIdentifierList, "group %s: nil subcommand", name)
		}

		label := child.Label()
		if i, dup := g.byLabel[label]; dup {
			return nil, NewErrorf(CodeDuplicateVariant, "group %s: %s and %s both derive subcommand %s",
				name, g.variants[i].Module.Name(), child.Name(), label)
		}

		if i, dup := g.byToken[child.Token()]; dup {
			return nil, NewErrorf(CodeDuplicateVariant, "group %s: %s and %s both derive subcommand token %q",
				name, g.variants[i].Module.Name(), child.Name(), child.Token())
		}

		g.byLabel[label] = len(g.variants)
		g.byToken[child.Token()] = len(g.variants)
		g.variants = append(g.variants, Variant{
			Label:  label,
			Token:  child.Token(),
			Module: child,
			Doc:    child.Doc(),
		})
	}

	return g, nil
}

// MustCompose is like Compose but panics on error.
func MustCompose(name string, children []Module, doc ...string) *Group {
	g, err := Compose(name, children, doc...)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the group identifier.
func (g *Group) Name() string { return g.name }

// Label returns the derived variant label.
func (g *Group) Label() string { return g.label }

// Token returns the command-line token.
func (g *Group) Token() string { return g.token }

// Doc returns the group's documentation lines.
func (g *Group) Doc() []string { return copyLines(g.doc) }

// Variants returns the tagged union members in declaration order.
func (g *Group) Variants() []Variant {
	out := make([]Variant, len(g.variants))
	for i, v := range g.variants {
		v.Doc = copyLines(v.Doc)
		out[i] = v
	}
	return out
}

// Variant returns the member tagged label.
func (g *Group) Variant(label string) (Variant, bool) {
	i, ok := g.byLabel[label]
	if !ok {
		return Variant{}, false
	}
	return g.variants[i], true
}

// VariantByToken returns the member selected by a command-line token.
func (g *Group) VariantByToken(token string) (Variant, bool) {
	i, ok := g.byToken[token]
	if !ok {
		return Variant{}, false
	}
	return g.variants[i], true
}

// NewArgs returns an empty selection.
func (g *Group) NewArgs() Args {
	return &Selection{}
}

// Run passes the selected variant's arguments to that child's Run. The
// arguments are not parsed again.
func (g *Group) Run(ctx context.Context, w io.Writer, args Args) error {
	sel, ok := args.(*Selection)
	if !ok || sel == nil {
		return fmt.Errorf("group %s: arguments %T are not a subcommand selection", g.name, args)
	}
	if sel.Label == "" {
		return fmt.Errorf("group %s: no subcommand selected", g.name)
	}

	v, ok := g.Variant(sel.Label)
	if !ok {
		return fmt.Errorf("group %s: unknown subcommand %s", g.name, sel.Label)
	}

	ctxlog.FromContext(ctx).Debug("dispatching subcommand", "group", g.name, "subcommand", v.Module.Name())
	return v.Module.Run(ctx, w, sel.Args)
}
