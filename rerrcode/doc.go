// Package rerrcode provides a toolkit for defining and assigning exit
// codes to CLI-facing errors. An ErrorCode is identified globally by a
// string value, typically all uppercase, by convention. When an
// ErrorCode is registered, a value unique to the process is assigned,
// which can be used for identity tests.
//
// Use of this package is defined by the following flow:
//   - Each error is registered with the rerrcode package via the
//     Register() function. Register() takes a group name and an
//     ErrorDescriptor structure, and returns an ErrorCode that uniquely
//     identifies the registered error.
//   - Once an error is registered, the returned ErrorCode can be used
//     just like any other Go error type.
//   - WithArgs() substitutes the error message's "%s" placeholders,
//     and WithDetail() attaches arbitrary additional context; both
//     return an Error resource that extends ErrorCode.
//
// The package consists of three main resource types:
//
//   - ErrorCode: a unique (numerical) identifier for a particular error
//     registered with rerrcode. This value is returned by Register.
//
//   - ErrorDescriptor: describes a single error condition — its Value
//     (a unique string identifier), Message (a human-readable, %s-
//     substitutable sentence), Description (additional explanatory
//     text), and ExitCode (the process exit status this error should
//     produce).
//
//   - Error: extends an ErrorCode resource with substitution variables
//     and details.
package rerrcode
