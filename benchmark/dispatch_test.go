package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/i2y/terse/cli"
	"github.com/i2y/terse/command"
	"github.com/i2y/terse/naming"
	"github.com/i2y/terse/schema"
)

func commandThree(a, b int32) string {
	return fmt.Sprintf("the difference is %d", a-b)
}

func benchTree(b *testing.B) (*command.Group, *command.Leaf) {
	b.Helper()

	three := command.MustFunc("command_three", commandThree, []string{"a", "b"})
	sub := command.MustCompose("my_subcommands", []command.Module{
		command.MustFunc("command_two", func(name string) string { return "hello " + name }, []string{"name"}),
		three,
	})
	root := command.MustCompose("cli", []command.Module{sub})
	return root, three
}

// BenchmarkLabel measures name derivation.
func BenchmarkLabel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = naming.Label("my_subcommands_with_a_long_name")
	}
}

// BenchmarkGroupRun measures dispatch through two groups with pre-parsed arguments.
func BenchmarkGroupRun(b *testing.B) {
	root, three := benchTree(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vals := three.NewValues()
		_ = vals.Set("a", int32(7))
		_ = vals.Set("b", int32(3))
		if err := root.Run(ctx, io.Discard, command.Select("MySubcommands", command.Select("CommandThree", vals))); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExecute measures a full command line invocation, including
// building the cobra tree and parsing flags.
func BenchmarkExecute(b *testing.B) {
	root, _ := benchTree(b)
	ctx := context.Background()
	args := []string{"my-subcommands", "command-three", "--a", "7", "--b", "3"}

	var out bytes.Buffer
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Reset()
		if err := cli.Execute(ctx, root, cli.WithArgs(args...), cli.WithOutput(&out)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDescribe measures building and validating the tree's descriptor.
func BenchmarkDescribe(b *testing.B) {
	root, _ := benchTree(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := schema.DescribeFile(root, schema.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
