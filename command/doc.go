// Package command builds command modules from function signatures and
// composes them into subcommand groups.
//
// A leaf command wraps one function. Its parameters become long-form flags
// of the same name; pointer parameters are optional and reach the function
// as nil when absent:
//
//	one := command.MustSource(`
//	// Adds b to a.
//	func command_one(a int32, b *int32) int32`, commandOne)
//
// Groups tag each child with its upper camel case label and dispatch to
// the selected child. A group is itself a Module, so groups nest:
//
//	reg := command.NewRegistry()
//	reg.MustRegister(one, two, three)
//	reg.MustCompose("my_subcommands, [command_two, command_three]")
//	root := reg.MustCompose("cli, [command_one, my_subcommands]")
//
// Building and composing happen once at startup. Every failure is an *Error
// that aborts the step; see the Err* sentinels.
package command
