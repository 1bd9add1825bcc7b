// Package cli binds a command module tree to the command line using cobra.
//
// Groups become parent commands whose subcommands are their variants, in
// declaration order; leaves become runnable commands with one long flag per
// parameter. Running a leaf assembles the nested argument value for the
// whole path and hands it to the root module, which dispatches it down the
// tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/i2y/terse/command"
	"github.com/i2y/terse/internal/ctxlog"
	"github.com/i2y/terse/proto"
	"github.com/i2y/terse/schema"
)

var (
	// ErrNilRoot is returned when no root module is given.
	ErrNilRoot = errors.New("cli: nil root module")
	// ErrSubcommandRequired is returned when a group is invoked without
	// selecting one of its subcommands.
	ErrSubcommandRequired = errors.New("a subcommand is required")
)

// Help lists subcommands in declaration order. The setting is global to
// cobra, so it is written once.
var disableSorting sync.Once

const schemaCommandName = "schema"

// NewCommand builds a fresh cobra command tree for root.
func NewCommand(root command.Module, opts ...Option) (*cobra.Command, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	o := newOptions(opts)

	disableSorting.Do(func() { cobra.EnableCommandSorting = false })

	b := &binder{root: root, opts: o}
	cmd, err := b.build(root, func(a command.Args) command.Args { return a })
	if err != nil {
		return nil, err
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(o.Out)
	cmd.SetErr(o.Err)
	cmd.SetArgs(o.Args)

	if o.Schema {
		if _, ok := root.(*command.Group); ok {
			for _, sub := range cmd.Commands() {
				if sub.Name() == schemaCommandName {
					return nil, fmt.Errorf("cli: subcommand %q conflicts with the schema command", schemaCommandName)
				}
			}
			cmd.AddCommand(newSchemaCommand(root))
		}
	}

	return cmd, nil
}

// Execute parses the configured arguments and runs the selected command.
func Execute(ctx context.Context, root command.Module, opts ...Option) error {
	cmd, err := NewCommand(root, opts...)
	if err != nil {
		return err
	}
	return cmd.ExecuteContext(ctx)
}

// Main runs Execute with os.Args and exits with status 1 on error. An
// interrupt cancels the command's context.
func Main(root command.Module, opts ...Option) {
	o := newOptions(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := Execute(ctx, root, opts...)
	stop()

	if err != nil {
		fmt.Fprintf(o.Err, "Error: %v\n", err)
		os.Exit(1)
	}
}

type binder struct {
	root command.Module
	opts Options

	once  sync.Once
	fd    protoreflect.FileDescriptor
	fdErr error
}

// build creates the cobra command for m. wrap turns m's arguments into the
// root's arguments by adding one selection per ancestor group.
func (b *binder) build(m command.Module, wrap func(command.Args) command.Args) (*cobra.Command, error) {
	doc := m.Doc()
	cmd := &cobra.Command{
		Use:     m.Token(),
		Short:   short(doc),
		Long:    strings.Join(doc, "\n"),
		Version: b.opts.Version,
		Args:    cobra.NoArgs,
	}

	switch m := m.(type) {
	case *command.Leaf:
		if err := b.bindLeaf(cmd, m, wrap); err != nil {
			return nil, err
		}
	case *command.Group:
		cmd.RunE = func(cmd *cobra.Command, _ []string) error {
			return fmt.Errorf("%s: %w (see '%s --help')", cmd.CommandPath(), ErrSubcommandRequired, cmd.CommandPath())
		}
		for _, v := range m.Variants() {
			label := v.Label
			child, err := b.build(v.Module, func(a command.Args) command.Args {
				return wrap(command.Select(label, a))
			})
			if err != nil {
				return nil, err
			}
			cmd.AddCommand(child)
		}
	default:
		return nil, fmt.Errorf("cli: unsupported module %T", m)
	}

	return cmd, nil
}

func (b *binder) bindLeaf(cmd *cobra.Command, l *command.Leaf, wrap func(command.Args) command.Args) error {
	bindings, err := bindFlags(cmd.Flags(), l.Schema())
	if err != nil {
		return fmt.Errorf("command %s: %w", l.Name(), err)
	}
	for _, f := range l.Schema().Flags() {
		if f.Required {
			_ = cmd.MarkFlagRequired(f.Name)
		}
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		vals := l.NewValues()
		for _, bd := range bindings {
			if err := bd.apply(cmd.Flags(), vals); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		if b.opts.Logger != nil {
			ctx = ctxlog.WithLogger(ctx, b.opts.Logger)
		}
		args := wrap(vals)

		logger := ctxlog.FromContext(ctx)
		logger.Debug("running command", "command", l.Name(), "path", cmd.CommandPath())
		if logger.Enabled(ctx, slog.LevelDebug) {
			b.logInvocation(ctx, logger, args)
		}

		return b.root.Run(ctx, cmd.OutOrStdout(), args)
	}
	return nil
}

// logInvocation logs the parsed arguments as the JSON form of the tree's
// protobuf schema.
func (b *binder) logInvocation(ctx context.Context, logger *slog.Logger, args command.Args) {
	b.once.Do(func() {
		b.fd, b.fdErr = schema.DescribeFile(b.root, schema.Options{})
	})
	if b.fdErr != nil {
		logger.DebugContext(ctx, "cannot describe command tree", "error", b.fdErr)
		return
	}

	msg, err := schema.Encode(b.fd, b.root, args)
	if err != nil {
		logger.DebugContext(ctx, "cannot encode arguments", "error", err)
		return
	}
	logger.DebugContext(ctx, "invocation", "args", protojson.Format(msg))
}

func newSchemaCommand(root command.Module) *cobra.Command {
	var (
		packageName string
		noComments  bool
	)

	cmd := &cobra.Command{
		Use:    schemaCommandName,
		Short:  "Print the protobuf description of this command tree",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := proto.DefaultExportOptions()
			opts.IncludeComments = !noComments

			content, err := proto.NewExporter(opts).ExportModule(root, schema.Options{PackageName: packageName})
			if err != nil {
				return fmt.Errorf("failed to export schema: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}

	cmd.Flags().StringVar(&packageName, "package", "", "Protobuf package name")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "Omit documentation comments")

	return cmd
}

func short(doc []string) string {
	if len(doc) == 0 {
		return ""
	}
	return doc[0]
}
