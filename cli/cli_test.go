package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/i2y/terse/cli"
	"github.com/i2y/terse/command"
	"github.com/i2y/terse/internal/ctxlog"
)

func commandOne(a int32, b *int32) int32 {
	if b != nil {
		return a + *b
	}
	return a
}

func commandTwo(name string) string {
	return "hello " + name
}

func commandThree(a, b int32) string {
	return fmt.Sprintf("the difference is %d", a-b)
}

func commandFour() string {
	return "command four"
}

type fixture struct {
	one  *command.Leaf
	sub  *command.Group
	root *command.Group
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	reg := command.NewRegistry()
	one, err := reg.Source(`
// Adds b to a when b is given.
func command_one(a int32, b *int32) int32`, commandOne, command.WithParamDoc("a", "first operand"))
	require.NoError(t, err)
	_, err = reg.Func("command_two", commandTwo, []string{"name"}, command.WithDoc("Says hello."))
	require.NoError(t, err)
	_, err = reg.Func("command_three", commandThree, []string{"a", "b"})
	require.NoError(t, err)
	_, err = reg.Func("command_four", commandFour, nil)
	require.NoError(t, err)

	sub, err := reg.Compose("my_subcommands, [command_two, command_three, command_four]", "Greetings and arithmetic.")
	require.NoError(t, err)
	root, err := reg.Compose("cli, [command_one, my_subcommands]", "Example CLI.")
	require.NoError(t, err)

	return fixture{one: one, sub: sub, root: root}
}

func run(t *testing.T, root command.Module, args []string, opts ...cli.Option) (string, error) {
	t.Helper()

	var out bytes.Buffer
	opts = append([]cli.Option{
		cli.WithArgs(args...),
		cli.WithOutput(&out),
		cli.WithErrorOutput(&out),
	}, opts...)
	err := cli.Execute(context.Background(), root, opts...)
	return out.String(), err
}

func TestExecute_Scenarios(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		root command.Module
		args []string
		want string
	}{
		{"leaf root required only", f.one, []string{"--a", "3"}, "3\n"},
		{"leaf root with optional", f.one, []string{"--a", "3", "--b", "4"}, "7\n"},
		{"flags in any order", f.one, []string{"--b=4", "--a=3"}, "7\n"},
		{"group root", f.sub, []string{"command-three", "--a", "7", "--b", "3"}, "the difference is 4\n"},
		{"nested group", f.root, []string{"my-subcommands", "command-two", "--name", "Bob"}, "hello Bob\n"},
		{"nested leaf", f.root, []string{"command-one", "--a", "3"}, "3\n"},
		{"no flags", f.root, []string{"my-subcommands", "command-four"}, "command four\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.root, tt.args)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestExecute_UsageErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing required flag", []string{"command-one"}, `required flag(s) "a" not set`},
		{"bad value", []string{"command-one", "--a", "three"}, "invalid argument"},
		{"unknown flag", []string{"command-one", "--a", "1", "--c", "2"}, "unknown flag: --c"},
		{"unknown subcommand", []string{"command-nine"}, "unknown command"},
		{"unknown nested subcommand", []string{"my-subcommands", "command-nine"}, "unknown command"},
		{"positional argument", []string{"command-one", "--a", "1", "extra"}, "unknown command"},
		{"group without subcommand", []string{"my-subcommands"}, "cli my-subcommands: a subcommand is required"},
		{"root group without subcommand", []string{}, "a subcommand is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, f.root, tt.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExecute_HelpAndVersion(t *testing.T) {
	f := newFixture(t)

	t.Run("root help lists variants in order", func(t *testing.T) {
		out, err := run(t, f.root, []string{"--help"})
		require.NoError(t, err)
		require.Contains(t, out, "Example CLI.")
		one := strings.Index(out, "command-one")
		sub := strings.Index(out, "my-subcommands")
		require.True(t, one >= 0 && sub > one, "expected command-one before my-subcommands:\n%s", out)
		require.Contains(t, out, "Greetings and arithmetic.")
	})

	t.Run("group help lists variants", func(t *testing.T) {
		out, err := run(t, f.root, []string{"my-subcommands", "--help"})
		require.NoError(t, err)
		require.Contains(t, out, "command-three")
		require.Contains(t, out, "Says hello.")
	})

	t.Run("leaf help shows flags", func(t *testing.T) {
		out, err := run(t, f.root, []string{"command-one", "--help"})
		require.NoError(t, err)
		require.Contains(t, out, "--a int32")
		require.Contains(t, out, "first operand")
		require.Contains(t, out, "--b int32")
	})

	for _, args := range [][]string{
		{"--version"},
		{"my-subcommands", "--version"},
		{"command-one", "--version"},
	} {
		t.Run("version "+strings.Join(args, " "), func(t *testing.T) {
			out, err := run(t, f.root, args, cli.WithVersion("1.2.3"))
			require.NoError(t, err)
			require.Contains(t, out, "version 1.2.3")
		})
	}
}

func TestExecute_FlagTypes(t *testing.T) {
	leaf := command.MustFunc("serve",
		func(timeout time.Duration, tags []string, addr netip.Addr, verbose bool, retries *uint8) string {
			r := "default"
			if retries != nil {
				r = fmt.Sprint(*retries)
			}
			return fmt.Sprintf("%s %v %s %t %s", timeout, tags, addr, verbose, r)
		},
		[]string{"timeout", "tags", "addr", "verbose", "retries"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "all flags",
			args: []string{"--timeout", "1m30s", "--tags", "x,y", "--tags", "z", "--addr", "127.0.0.1", "--verbose", "--retries", "2"},
			want: "1m30s [x y z] 127.0.0.1 true 2\n",
		},
		{
			name: "switch and optional absent",
			args: []string{"--timeout", "1s", "--tags", "a", "--addr", "::1"},
			want: "1s [a] ::1 false default\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, leaf, tt.args)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}

	t.Run("bad text value", func(t *testing.T) {
		_, err := run(t, leaf, []string{"--timeout", "1s", "--tags", "a", "--addr", "not-an-ip"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "--addr")
	})
}

func TestExecute_Rules(t *testing.T) {
	leaf := command.MustFunc("scale", func(replicas int, format string) string {
		return fmt.Sprintf("%d %s", replicas, format)
	}, []string{"replicas", "format"},
		command.WithRule("replicas", "gte=0,lte=10"),
		command.WithRule("format", "oneof=json text"))

	out, err := run(t, leaf, []string{"--replicas", "3", "--format", "json"})
	require.NoError(t, err)
	require.Equal(t, "3 json\n", out)

	_, err = run(t, leaf, []string{"--replicas", "11", "--format", "json"})
	require.ErrorContains(t, err, "invalid value for --replicas")

	_, err = run(t, leaf, []string{"--replicas", "1", "--format", "yaml"})
	require.ErrorContains(t, err, "invalid value for --format")
}

type ctxKey struct{}

func TestExecute_ContextLoggerAndErrors(t *testing.T) {
	errBoom := errors.New("boom")

	leaf := command.MustFunc("probe", func(ctx context.Context, fail bool) (string, error) {
		if fail {
			return "", errBoom
		}
		ctxlog.FromContext(ctx).Info("probing")
		return fmt.Sprint(ctx.Value(ctxKey{})), nil
	}, []string{"fail"})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var out bytes.Buffer
	ctx := context.WithValue(context.Background(), ctxKey{}, "from caller")
	err := cli.Execute(ctx, leaf,
		cli.WithArgs(),
		cli.WithOutput(&out),
		cli.WithLogger(logger))
	require.NoError(t, err)
	require.Equal(t, "from caller\n", out.String())
	require.Contains(t, logs.String(), "running command")
	require.Contains(t, logs.String(), "probing")

	_, err = run(t, leaf, []string{"--fail"})
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "probe")
}

func TestExecute_DebugInvocationLog(t *testing.T) {
	f := newFixture(t)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	out, err := run(t, f.root, []string{"my-subcommands", "command-three", "--a", "7", "--b", "3"}, cli.WithLogger(logger))
	require.NoError(t, err)
	require.Equal(t, "the difference is 4\n", out)

	require.Contains(t, logs.String(), "invocation")
	require.Contains(t, logs.String(), "mySubcommands")
	require.Contains(t, logs.String(), "commandThree")
	require.Contains(t, logs.String(), "dispatching subcommand")

	logs.Reset()
	quiet := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	_, err = run(t, f.root, []string{"command-one", "--a", "1"}, cli.WithLogger(quiet))
	require.NoError(t, err)
	require.Empty(t, logs.String())
}

func TestExecute_SchemaCommand(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f.root, []string{"schema", "--package", "example.v1"}, cli.WithSchemaCommand())
	require.NoError(t, err)
	require.Contains(t, out, "package example.v1")
	require.Contains(t, out, "message Cli")
	require.Contains(t, out, "oneof command")

	help, err := run(t, f.root, []string{"--help"}, cli.WithSchemaCommand())
	require.NoError(t, err)
	require.NotContains(t, help, "schema")

	_, err = run(t, f.root, []string{"schema"})
	require.ErrorContains(t, err, "unknown command")
}

func TestNewCommand_Errors(t *testing.T) {
	_, err := cli.NewCommand(nil)
	require.ErrorIs(t, err, cli.ErrNilRoot)

	conflict := command.MustCompose("tool", []command.Module{
		command.MustFunc("schema", func() {}, nil),
	})
	_, err = cli.NewCommand(conflict, cli.WithSchemaCommand())
	require.ErrorContains(t, err, "conflicts")
}

func TestExecute_SubcommandRequired(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f.root, []string{"my-subcommands"})
	require.ErrorIs(t, err, cli.ErrSubcommandRequired)
	require.NotContains(t, out, "hello")

	_, err = run(t, f.root, []string{"my-subcommands", "--version"}, cli.WithVersion("1.2.3"))
	require.NoError(t, err)
}

func TestNewCommand_ConcurrentBuilds(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 4; i++ {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			t.Parallel()
			out, err := run(t, f.root, []string{"my-subcommands", "command-two", "--name", "Bob"})
			require.NoError(t, err)
			require.Equal(t, "hello Bob\n", out)
		})
	}
}

func TestNewCommand_FreshTreePerCall(t *testing.T) {
	f := newFixture(t)

	for _, args := range [][]string{
		{"command-one", "--a", "3", "--b", "4"},
		{"command-one", "--a", "3"},
	} {
		var out bytes.Buffer
		cmd, err := cli.NewCommand(f.root, cli.WithArgs(args...), cli.WithOutput(&out))
		require.NoError(t, err)
		require.NoError(t, cmd.Execute())
		if len(args) == 5 {
			require.Equal(t, "7\n", out.String())
		} else {
			require.Equal(t, "3\n", out.String())
		}
	}
}
