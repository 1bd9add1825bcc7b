// Package commands implements the commands of the terse example CLI.
package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/i2y/terse/command"
)

// BuildInfo describes the binary, as set by build flags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// String renders the one-line banner printed by --version.
func (i BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.Commit, i.BuildDate)
}

func commandOne(a int32, b *int32) int32 {
	if b == nil {
		return a
	}
	return a + *b
}

func commandTwo(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func commandThree(a, b int32) string {
	return fmt.Sprintf("the difference is %d", a-b)
}

func commandFour() string {
	return "command four"
}

func versionReport(info BuildInfo) func() string {
	return func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Terse CLI\n")
		fmt.Fprintf(&b, "Version:    %s\n", info.Version)
		fmt.Fprintf(&b, "Commit:     %s\n", info.Commit)
		fmt.Fprintf(&b, "Built:      %s\n", info.BuildDate)
		fmt.Fprintf(&b, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(&b, "OS/Arch:    %s/%s", runtime.GOOS, runtime.GOARCH)
		return b.String()
	}
}

// NewRoot builds the example tree:
//
//	cli
//	├── command-one --a <int32> [--b <int32>]
//	├── my-subcommands
//	│   ├── command-two --name <string>
//	│   ├── command-three --a <int32> --b <int32>
//	│   └── command-four
//	└── version
func NewRoot(info BuildInfo) (*command.Group, error) {
	reg := command.NewRegistry()

	sources := []struct {
		src string
		fn  any
	}{
		{`
// Example: terse command-one --a 3
func command_one(a int32, b *int32) int32`, commandOne},
		{`
// Example: terse my-subcommands command-two --name Bob
func command_two(name string) string`, commandTwo},
		{`
// Example: terse my-subcommands command-three --a 7 --b 3
func command_three(a int32, b int32) string`, commandThree},
		{`func command_four() string`, commandFour},
		{`
// Show version information
func version() string`, versionReport(info)},
	}
	for _, s := range sources {
		if _, err := reg.Source(s.src, s.fn); err != nil {
			return nil, err
		}
	}

	if _, err := reg.Compose("my_subcommands, [command_two, command_three, command_four]",
		"Greetings and arithmetic.",
		"Example: terse my-subcommands --help"); err != nil {
		return nil, err
	}
	return reg.Compose("cli, [command_one, my_subcommands, version]",
		"Example CLI built from plain Go functions.")
}
