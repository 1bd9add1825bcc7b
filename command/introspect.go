package command

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// srcPrefix turns a bare declaration into a parseable file.
const srcPrefix = "package command\n"

// Introspect derives a Signature from a Go function value. Reflection cannot
// recover parameter names, so they are supplied in declaration order. A
// leading context.Context parameter is recognized and takes no name.
func Introspect(name string, fn any, paramNames ...string) (Signature, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return Signature{}, NewErrorf(CodeInvalidSignature, "%s: %T is not a function", name, fn)
	}
	rt := rv.Type()

	sig := Signature{Name: name}
	start := 0
	if rt.NumIn() > 0 && rt.In(0) == contextType {
		sig.Context = true
		start = 1
	}

	n := rt.NumIn() - start
	if len(paramNames) != n {
		return Signature{}, NewErrorf(CodeInvalidSignature,
			"%s: function takes %d parameters but %d names were given", name, n, len(paramNames))
	}

	sig.Params = make([]Parameter, 0, n)
	for i := 0; i < n; i++ {
		pt := rt.In(start + i)
		sig.Params = append(sig.Params, Parameter{
			Name:     paramNames[i],
			TypeExpr: pt.String(),
			Type:     pt,
			Optional: pt.Kind() == reflect.Ptr,
			Variadic: rt.IsVariadic() && i == n-1,
		})
	}

	return sig, nil
}

// ParseSignature parses the source of a single Go function declaration, with
// or without a body, into a Signature. Doc comments directly above the
// declaration become the signature's documentation lines.
//
//	// Example: terse command-one --a 3
//	func command_one(a int32, b *int32) int32
//
// Types are taken from the source text and only inspected for shape; Build
// binds them to the function's real types.
func ParseSignature(src string) (Signature, error) {
	full := srcPrefix + src
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", full, parser.ParseComments)
	if err != nil {
		return Signature{}, NewError(CodeInvalidSignature, "failed to parse function").WithCause(err)
	}

	if len(file.Decls) != 1 {
		return Signature{}, NewErrorf(CodeInvalidSignature, "expected one function declaration, found %d declarations", len(file.Decls))
	}
	decl, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok {
		return Signature{}, NewError(CodeInvalidSignature, "declaration is not a function")
	}
	if decl.Recv != nil {
		return Signature{}, NewErrorf(CodeInvalidSignature, "%s: methods cannot be commands", decl.Name.Name)
	}
	if decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0 {
		return Signature{}, NewErrorf(CodeInvalidSignature, "%s: generic functions cannot be commands", decl.Name.Name)
	}

	text := func(n ast.Node) string {
		return full[fset.Position(n.Pos()).Offset:fset.Position(n.End()).Offset]
	}

	sig := Signature{Name: decl.Name.Name}
	if decl.Doc != nil {
		sig.Doc = docLines(decl.Doc)
	}

	for i, field := range decl.Type.Params.List {
		typeSrc := text(field.Type)
		if i == 0 && typeSrc == "context.Context" && len(field.Names) <= 1 {
			sig.Context = true
			continue
		}

		p := Parameter{
			TypeExpr: typeSrc,
			Optional: isOptionalExpr(typeSrc),
		}
		if ell, ok := field.Type.(*ast.Ellipsis); ok {
			p.Variadic = true
			p.TypeExpr = "[]" + text(ell.Elt)
			p.Optional = false
		}

		if len(field.Names) == 0 {
			p.Source = typeSrc
			sig.Params = append(sig.Params, p)
			continue
		}
		for _, ident := range field.Names {
			named := p
			named.Name = ident.Name
			named.Source = ident.Name + " " + typeSrc
			sig.Params = append(sig.Params, named)
		}
	}

	return sig, nil
}

// docLines returns the lines of a comment group with the comment markers removed.
func docLines(cg *ast.CommentGroup) []string {
	doc := strings.TrimRight(cg.Text(), "\n")
	if doc == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}
