package command_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/i2y/terse/command"
)

func commandTwo(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func commandThree(a, b int32) string {
	return fmt.Sprintf("the difference is %d", a-b)
}

func commandFour() string {
	return "command four"
}

type exampleTree struct {
	one, two, three, four *command.Leaf
	sub, root             *command.Group
}

func newExampleTree(t *testing.T) exampleTree {
	t.Helper()

	var tree exampleTree
	tree.one = command.MustSource(`
// Example: terse command-one --a 3
func command_one(a int32, b *int32) int32`, commandOne)
	tree.two = command.MustSource(`
// Example: terse my-subcommands command-two --name Bob
func command_two(name string) string`, commandTwo)
	tree.three = command.MustSource(`func command_three(a int32, b int32) string`, commandThree)
	tree.four = command.MustSource(`func command_four() string`, commandFour)

	var err error
	tree.sub, err = command.Compose("my_subcommands",
		[]command.Module{tree.two, tree.three, tree.four}, "Greetings and arithmetic.")
	if err != nil {
		t.Fatalf("Compose(my_subcommands) failed: %v", err)
	}
	tree.root, err = command.Compose("cli", []command.Module{tree.one, tree.sub})
	if err != nil {
		t.Fatalf("Compose(cli) failed: %v", err)
	}
	return tree
}

func TestCompose_Variants(t *testing.T) {
	tree := newExampleTree(t)

	variants := tree.sub.Variants()
	var labels, tokens []string
	for _, v := range variants {
		labels = append(labels, v.Label)
		tokens = append(tokens, v.Token)
	}
	if want := []string{"CommandTwo", "CommandThree", "CommandFour"}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
	if want := []string{"command-two", "command-three", "command-four"}; !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}

	v, ok := tree.sub.VariantByToken("command-three")
	if !ok || v.Module != command.Module(tree.three) {
		t.Errorf("VariantByToken(command-three) = %+v, %v", v, ok)
	}
}

func TestCompose_Docs(t *testing.T) {
	tree := newExampleTree(t)

	if want := []string{"Greetings and arithmetic."}; !reflect.DeepEqual(tree.sub.Doc(), want) {
		t.Errorf("group Doc() = %q, want %q", tree.sub.Doc(), want)
	}
	if tree.root.Doc() != nil {
		t.Errorf("root has no docs, got %q", tree.root.Doc())
	}

	v, _ := tree.sub.Variant("CommandTwo")
	if want := []string{"Example: terse my-subcommands command-two --name Bob"}; !reflect.DeepEqual(v.Doc, want) {
		t.Errorf("variant Doc = %q, want %q", v.Doc, want)
	}
	v, _ = tree.sub.Variant("CommandThree")
	if v.Doc != nil {
		t.Errorf("undocumented child should have no variant docs, got %q", v.Doc)
	}

	// Nested group docs attach to its variant in the parent as well.
	v, _ = tree.root.Variant("MySubcommands")
	if !reflect.DeepEqual(v.Doc, tree.sub.Doc()) {
		t.Errorf("nested group variant Doc = %q", v.Doc)
	}
}

func TestCompose_DuplicateVariant(t *testing.T) {
	a := command.MustFunc("command_two", commandTwo, []string{"name"})
	b := command.MustFunc("commandTwo", commandTwo, []string{"name"})
	c := command.MustFunc("command_three", commandThree, []string{"a", "b"})
	ab1 := command.MustFunc("a_b1", commandFour, nil)
	abOne := command.MustFunc("ab1", commandFour, nil)

	tests := []struct {
		name     string
		children []command.Module
		wantDup  bool
	}{
		{"same label from different spellings", []command.Module{a, b}, true},
		{"same module twice", []command.Module{a, a}, true},
		{"distinct labels same token", []command.Module{ab1, abOne}, true},
		{"distinct labels", []command.Module{a, c}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := command.Compose("group", tt.children)
			if got := errors.Is(err, command.ErrDuplicateVariant); got != tt.wantDup {
				t.Errorf("ErrDuplicateVariant = %v, want %v (err: %v)", got, tt.wantDup, err)
			}
			if !tt.wantDup && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompose_Invalid(t *testing.T) {
	leaf := command.MustFunc("command_four", commandFour, nil)

	if _, err := command.Compose("empty", nil); !errors.Is(err, command.ErrEmptyGroup) {
		t.Errorf("expected ErrEmptyGroup, got %v", err)
	}
	if _, err := command.Compose("bad name", []command.Module{leaf}); !errors.Is(err, command.ErrInvalidIdentifierList) {
		t.Errorf("expected ErrInvalidIdentifierList, got %v", err)
	}
	if _, err := command.Compose("nils", []command.Module{nil}); !errors.Is(err, command.ErrInvalidIdentifierList) {
		t.Errorf("expected ErrInvalidIdentifierList, got %v", err)
	}
}

func TestGroup_Dispatch(t *testing.T) {
	tree := newExampleTree(t)

	three := tree.three.NewValues()
	_ = three.Set("a", int32(7))
	_ = three.Set("b", int32(3))

	var out bytes.Buffer
	if err := tree.sub.Run(context.Background(), &out, command.Select("CommandThree", three)); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if out.String() != "the difference is 4\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestGroup_NestedDispatch(t *testing.T) {
	tree := newExampleTree(t)

	two := tree.two.NewValues()
	_ = two.Set("name", "Bob")
	args := command.Select("MySubcommands", command.Select("CommandTwo", two))

	var out bytes.Buffer
	if err := tree.root.Run(context.Background(), &out, args); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if out.String() != "hello Bob\n" {
		t.Errorf("output = %q, want %q", out.String(), "hello Bob\n")
	}

	one := tree.one.NewValues()
	_ = one.Set("a", int32(3))
	out.Reset()
	if err := tree.root.Run(context.Background(), &out, command.Select("CommandOne", one)); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if out.String() != "3\n" {
		t.Errorf("output = %q, want %q", out.String(), "3\n")
	}
}

func TestGroup_DispatchErrors(t *testing.T) {
	tree := newExampleTree(t)

	tests := []struct {
		name string
		args command.Args
	}{
		{"leaf values", tree.one.NewArgs()},
		{"empty selection", tree.root.NewArgs()},
		{"unknown label", command.Select("CommandNine", nil)},
		{"wrong payload", command.Select("CommandOne", tree.two.NewArgs())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tree.root.Run(context.Background(), &bytes.Buffer{}, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
