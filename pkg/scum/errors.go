package scum

import (
	"errors"
	"fmt"
	"strings"
)

// EnvError is implemented by errors raised by environment lookups and
// builtins.
type EnvError interface {
	error
	envError()
}

// EvaluationError is implemented by errors raised by the evaluator itself.
type EvaluationError interface {
	error
	evaluationError()
}

// NotFoundError is returned when looking up an unbound identifier.
type NotFoundError struct {
	ID Identifier
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unbound identifier: %s", e.ID)
}

// DifferentConstantTypesError is returned when comparing values of
// incompatible kinds for equality.
type DifferentConstantTypesError struct {
	Left, Right Expression
}

func (e *DifferentConstantTypesError) Error() string {
	return fmt.Sprintf("expected two args with the same type, received %s and %s", Repr(e.Left), Repr(e.Right))
}

// NonNumericArgsError is returned when an arithmetic or ordering builtin
// receives a non-numeric operand.
type NonNumericArgsError struct {
	Left, Right Expression
}

func (e *NonNumericArgsError) Error() string {
	return fmt.Sprintf("expected two numeric args, received %s and %s", Repr(e.Left), Repr(e.Right))
}

// ArityError is returned when a builtin is called with an operand count its
// arity policy does not allow.
type ArityError struct {
	Name   string
	Policy ArityPolicy
	Actual int
}

func (e *ArityError) Error() string {
	expected := "at least 2"
	if e.Policy == ArityBinary {
		expected = "exactly 2"
	}
	return fmt.Sprintf("%s: expected %s arguments, received %d", e.Name, expected, e.Actual)
}

// DivisionByZeroError is returned for integer division by zero.
type DivisionByZeroError struct {
	Dividend Expression
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("attempted to divide %s by zero", Repr(e.Dividend))
}

// IntegerOverflowError is returned when integer arithmetic leaves the range
// of Int. Floats are never checked.
type IntegerOverflowError struct {
	Op          string
	Left, Right Expression
}

func (e *IntegerOverflowError) Error() string {
	return fmt.Sprintf("integer overflow: (%s %s %s)", e.Op, Repr(e.Left), Repr(e.Right))
}

func (*NotFoundError) envError()               {}
func (*DifferentConstantTypesError) envError() {}
func (*NonNumericArgsError) envError()         {}
func (*ArityError) envError()                  {}
func (*DivisionByZeroError) envError()         {}
func (*IntegerOverflowError) envError()        {}

// TypeMismatchError is returned when a special form or call head evaluates to
// a value of the wrong kind. Input is the unevaluated sub-expression and
// Output what it evaluated to.
type TypeMismatchError struct {
	Article      string
	ExpectedType string
	Input        Expression
	Output       Expression
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected %s %s, but evaluation of %s led to %s",
		e.Article, e.ExpectedType, Repr(e.Input), Repr(e.Output))
}

// WrongNumberOfArgsError is returned when a lambda is applied to the wrong
// number of arguments.
type WrongNumberOfArgsError struct {
	Expected int
	Actual   int
}

func (e *WrongNumberOfArgsError) Error() string {
	return fmt.Sprintf("expected %d arguments, received %d", e.Expected, e.Actual)
}

func (*TypeMismatchError) evaluationError()      {}
func (*WrongNumberOfArgsError) evaluationError() {}

// ErrorKind tags which stage an error came from.
type ErrorKind string

const (
	ReadingErrorKind    ErrorKind = "read"
	EvaluationErrorKind ErrorKind = "eval"
	EnvErrorKind        ErrorKind = "env"
)

// KindOf classifies err. It returns "" for errors from outside the
// interpreter, such as I/O failures.
func KindOf(err error) ErrorKind {
	var readErr *ReadError
	var evalErr EvaluationError
	var envErr EnvError
	switch {
	case errors.As(err, &readErr):
		return ReadingErrorKind
	case errors.As(err, &evalErr):
		return EvaluationErrorKind
	case errors.As(err, &envErr):
		return EnvErrorKind
	default:
		return ""
	}
}

// SourceLocation is a position in source text.
type SourceLocation struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Length   int    `json:"length"` // Length of the offending token
}

func (loc SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", loc.Filename, loc.Line, loc.Column)
}

// ReadError is returned for malformed source.
type ReadError struct {
	Message  string
	Location SourceLocation
	Source   string

	// Incomplete is set when the source ended inside a list or string, so
	// more input could complete it.
	Incomplete bool
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// FormatWithHighlighting renders the error with the offending line and a
// caret underline.
func (e *ReadError) FormatWithHighlighting() string {
	lines := strings.Split(e.Source, "\n")
	if e.Location.Line < 1 || e.Location.Line > len(lines) {
		return e.Error()
	}

	const (
		red   = "\033[31m"
		blue  = "\033[34m"
		bold  = "\033[1m"
		reset = "\033[0m"
		dim   = "\033[2m"
	)

	var result strings.Builder

	fmt.Fprintf(&result, "%s%sError:%s %s\n", bold, red, reset, e.Message)
	fmt.Fprintf(&result, "  %s%s--> %s%s\n", dim, blue, e.Location, reset)
	fmt.Fprintf(&result, " %s%s |%s\n", dim, padLeft("", 3), reset)

	startLine := max(1, e.Location.Line-2)
	for i := startLine; i <= e.Location.Line; i++ {
		lineNo := padLeft(fmt.Sprintf("%d", i), 3)
		if i == e.Location.Line {
			fmt.Fprintf(&result, " %s%s%s%s | %s%s\n", dim, blue, bold, lineNo, reset, lines[i-1])
			padding := strings.Repeat(" ", 1+3+3+e.Location.Column-1)
			underline := strings.Repeat("^", max(1, e.Location.Length))
			fmt.Fprintf(&result, "%s%s%s%s%s\n", dim, padding, red, underline, reset)
		} else {
			fmt.Fprintf(&result, " %s%s | %s%s\n", dim, lineNo, lines[i-1], reset)
		}
	}

	fmt.Fprintf(&result, " %s%s |%s\n", dim, padLeft("", 3), reset)

	return result.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
