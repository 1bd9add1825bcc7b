package command

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Parameter is one binding in a command's parameter list.
type Parameter struct {
	// Name is the binding name. Empty for unnamed parameters and "_" for the
	// blank identifier; both are rejected by Build.
	Name string `validate:"required,ident"`
	// TypeExpr is the declared type as written, e.g. "*int32".
	TypeExpr string `validate:"required"`
	// Type is the Go type, filled in by Build from the bound function.
	Type reflect.Type `validate:"-"`
	// Optional is true when the declared type is a pointer. It is derived from
	// the shape of the type expression only.
	Optional bool
	// Variadic marks a "...T" parameter, which cannot be bound to a flag.
	Variadic bool
	// Source is the binding's source text, echoed in error messages.
	Source string `validate:"-"`
	// Doc is the flag's help text.
	Doc string
	// Rule is an optional validator tag checked against supplied values, e.g. "gte=0".
	Rule string
}

// Signature is the normalized description of a command: its identifier,
// ordered parameters and documentation lines.
type Signature struct {
	Name   string      `validate:"required,ident"`
	Params []Parameter `validate:"-"`
	// Doc lines are carried verbatim into help text.
	Doc []string
	// Context reports whether the function takes a leading context.Context,
	// which is supplied at run time and never becomes a flag.
	Context bool
}

// identPattern accepts bare identifiers in snake, kebab and camel case.
var identPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_-]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance with the "ident" rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
			return IsIdentifier(fl.Field().String())
		})
	})
	return validate
}

// IsIdentifier reports whether s is a valid bare command or parameter name.
// The blank identifier is not.
func IsIdentifier(s string) bool {
	return s != "_" && identPattern.MatchString(s)
}

// isOptionalExpr reports whether a type expression has the optional-of-T shape.
func isOptionalExpr(typeExpr string) bool {
	return strings.HasPrefix(strings.TrimSpace(typeExpr), "*")
}

// String renders the signature as a Go-like declaration.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("func ")
	b.WriteString(s.Name)
	b.WriteByte('(')
	if s.Context {
		b.WriteString("ctx context.Context")
		if len(s.Params) > 0 {
			b.WriteString(", ")
		}
	}
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.source())
	}
	b.WriteByte(')')
	return b.String()
}

func (p Parameter) source() string {
	if p.Source != "" {
		return p.Source
	}
	expr := p.TypeExpr
	if p.Variadic {
		expr = "..." + strings.TrimPrefix(expr, "[]")
	}
	if p.Name == "" {
		return expr
	}
	return p.Name + " " + expr
}
