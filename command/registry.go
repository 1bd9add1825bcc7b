package command

// Registry holds built modules by identifier so that textual compositions
// can refer to them. It is populated once at startup and is not safe for
// concurrent mutation.
type Registry struct {
	modules map[string]Module
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds modules under their names.
func (r *Registry) Register(mods ...Module) error {
	for _, m := range mods {
		if m == nil {
			return NewError(CodeInvalidIdentifierList, "cannot register a nil module")
		}
		if _, exists := r.modules[m.Name()]; exists {
			return NewErrorf(CodeDuplicateCommand, "command %s is already registered", m.Name())
		}
		r.modules[m.Name()] = m
		r.order = append(r.order, m.Name())
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(mods ...Module) {
	if err := r.Register(mods...); err != nil {
		panic(err)
	}
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names returns registered identifiers in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Func builds a command from a function value and registers it.
func (r *Registry) Func(name string, fn any, paramNames []string, opts ...Option) (*Leaf, error) {
	l, err := Func(name, fn, paramNames, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Source builds a command from its declaration source and registers it.
func (r *Registry) Source(src string, fn any, opts ...Option) (*Leaf, error) {
	l, err := Source(src, fn, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Compose parses a composition such as "cli, [command_one, my_subcommands]",
// composes the named modules into a group and registers the group under its
// name, so it can in turn be a member of a later composition.
func (r *Registry) Compose(raw string, doc ...string) (*Group, error) {
	spec, err := ParseGroupSpec(raw)
	if err != nil {
		return nil, err
	}
	return r.ComposeSpec(spec, doc...)
}

// MustCompose is like Compose but panics on error.
func (r *Registry) MustCompose(raw string, doc ...string) *Group {
	g, err := r.Compose(raw, doc...)
	if err != nil {
		panic(err)
	}
	return g
}

// ComposeSpec composes an already parsed specification and registers the result.
func (r *Registry) ComposeSpec(spec GroupSpec, doc ...string) (*Group, error) {
	children := make([]Module, 0, len(spec.Members))
	for _, name := range spec.Members {
		m, ok := r.modules[name]
		if !ok {
			return nil, NewErrorf(CodeUnknownCommand, "group %s: no command named %s", spec.Name, name)
		}
		children = append(children, m)
	}

	g, err := Compose(spec.Name, children, doc...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(g); err != nil {
		return nil, err
	}
	return g, nil
}
