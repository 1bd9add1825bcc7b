package command

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// GroupSpec is the parsed textual form of a composition: a group identifier
// and the identifiers of its members.
type GroupSpec struct {
	Name    string
	Members []string
}

// ParseGroupSpec parses composition input of the exact shape
//
//	my_subcommands, [command_two, command_three]
//
// Any other shape fails with ErrInvalidIdentifierList carrying the HCL
// diagnostics that describe the problem.
func ParseGroupSpec(raw string) (GroupSpec, error) {
	// The input is a two element sequence; bracketing it makes it one HCL tuple.
	src := []byte("[" + raw + "]")
	expr, diags := hclsyntax.ParseExpression(src, "subcommands", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return GroupSpec{}, identListError(diags)
	}

	outer, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok || len(outer.Exprs) != 2 {
		return GroupSpec{}, identListError(shapeDiag(expr.Range(),
			"Invalid subcommands input",
			"Expected a group identifier, a comma, and a bracketed list of command identifiers."))
	}

	name, ok := bareIdent(outer.Exprs[0])
	if !ok {
		return GroupSpec{}, identListError(shapeDiag(outer.Exprs[0].Range(),
			"Invalid group identifier",
			"The group name must be a bare identifier."))
	}

	list, ok := outer.Exprs[1].(*hclsyntax.TupleConsExpr)
	if !ok {
		return GroupSpec{}, identListError(shapeDiag(outer.Exprs[1].Range(),
			"Invalid subcommand list",
			"Subcommands must be a bracketed list of command identifiers."))
	}

	spec := GroupSpec{Name: name, Members: make([]string, 0, len(list.Exprs))}
	var memberDiags hcl.Diagnostics
	for _, item := range list.Exprs {
		ident, ok := bareIdent(item)
		if !ok {
			memberDiags = append(memberDiags, shapeDiag(item.Range(),
				"Invalid subcommand identifier",
				"subcommands only accepts lists of identifiers.")...)
			continue
		}
		spec.Members = append(spec.Members, ident)
	}
	if memberDiags.HasErrors() {
		return GroupSpec{}, identListError(memberDiags)
	}

	return spec, nil
}

// String renders the spec in its textual form.
func (s GroupSpec) String() string {
	return s.Name + ", [" + strings.Join(s.Members, ", ") + "]"
}

// bareIdent returns the root name of a traversal with no attribute or index steps.
func bareIdent(expr hclsyntax.Expression) (string, bool) {
	st, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(st.Traversal) != 1 {
		return "", false
	}
	return st.Traversal.RootName(), true
}

func shapeDiag(rng hcl.Range, summary, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}

func identListError(diags hcl.Diagnostics) *Error {
	return NewError(CodeInvalidIdentifierList, "subcommands only accepts lists of identifiers").
		WithCause(diags)
}
