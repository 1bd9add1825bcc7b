package command

// Option adjusts a signature before it is built.
type Option func(*Signature) error

// WithDoc appends documentation lines.
func WithDoc(lines ...string) Option {
	return func(s *Signature) error {
		s.Doc = append(s.Doc, lines...)
		return nil
	}
}

// WithParamDoc sets the help text of a parameter's flag.
func WithParamDoc(name, doc string) Option {
	return paramOption(name, func(p *Parameter) { p.Doc = doc })
}

// WithRule attaches a validator tag, such as "gte=0" or "oneof=json text",
// that supplied values of the parameter must satisfy.
func WithRule(name, rule string) Option {
	return paramOption(name, func(p *Parameter) { p.Rule = rule })
}

func paramOption(name string, apply func(*Parameter)) Option {
	return func(s *Signature) error {
		for i := range s.Params {
			if s.Params[i].Name == name {
				apply(&s.Params[i])
				return nil
			}
		}
		return NewErrorf(CodeInvalidArgument, "%s has no parameter %q", s.Name, name)
	}
}

// Func builds a command from a function value. Parameter names are given in
// declaration order, since reflection cannot recover them.
func Func(name string, fn any, paramNames []string, opts ...Option) (*Leaf, error) {
	sig, err := Introspect(name, fn, paramNames...)
	if err != nil {
		return nil, err
	}
	return buildWith(sig, fn, opts)
}

// MustFunc is like Func but panics on error.
func MustFunc(name string, fn any, paramNames []string, opts ...Option) *Leaf {
	l, err := Func(name, fn, paramNames, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Source builds a command from the source of its Go declaration and the
// function implementing it. Names and doc comments come from the source.
func Source(src string, fn any, opts ...Option) (*Leaf, error) {
	sig, err := ParseSignature(src)
	if err != nil {
		return nil, err
	}
	return buildWith(sig, fn, opts)
}

// MustSource is like Source but panics on error.
func MustSource(src string, fn any, opts ...Option) *Leaf {
	l, err := Source(src, fn, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

func buildWith(sig Signature, fn any, opts []Option) (*Leaf, error) {
	sig.Params = append([]Parameter(nil), sig.Params...)
	for _, opt := range opts {
		if err := opt(&sig); err != nil {
			return nil, err
		}
	}
	return Build(sig, fn)
}
