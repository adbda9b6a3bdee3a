package scum

import (
	"context"
	"slices"
)

// Identifier names a binding.
type Identifier string

// Atom is a leaf value: Bool, Int, Float, Str or Symbol.
type Atom interface {
	String() string
	atom()
}

type Bool bool

type Int int64

type Float float64

type Str string

// Symbol is an unevaluated reference to a binding.
type Symbol Identifier

func (Bool) atom()   {}
func (Int) atom()    {}
func (Float) atom()  {}
func (Str) atom()    {}
func (Symbol) atom() {}

// Expression is both the syntax tree produced by the reader and the runtime
// value produced by evaluation.
type Expression interface {
	String() string
	expression()
}

// Constant is a literal. Everything but a Symbol evaluates to itself.
type Constant struct {
	Atom Atom
}

// Define binds the value of Value to the identifier Name evaluates to.
type Define struct {
	Name  Expression
	Value Expression
}

// If evaluates exactly one of its branches depending on Cond.
type If struct {
	Cond    Expression
	IfTrue  Expression
	IfFalse Expression
}

// Function is a native builtin. Two Functions are only ever equal if they are
// the same value.
type Function struct {
	Name string
	Doc  string
	Fn   func(ctx context.Context, args []Expression) (Expression, error)
}

// Lambda is a closure. Env is nil for a lambda that has been read but not yet
// evaluated; evaluation captures a snapshot of the current environment.
type Lambda struct {
	Params []Identifier
	Env    *Environment
	Body   Expression
}

// List is both a data aggregate and the call form.
type List []Expression

func (Constant) expression()  {}
func (*Define) expression()   {}
func (*If) expression()       {}
func (*Function) expression() {}
func (*Lambda) expression()   {}
func (List) expression()      {}

// Apply calls the native implementation.
func (f *Function) Apply(ctx context.Context, args []Expression) (Expression, error) {
	return f.Fn(ctx, args)
}

// Sym returns a symbol constant.
func Sym(name string) Constant {
	return Constant{Atom: Symbol(name)}
}

// Lit wraps an atom in a Constant.
func Lit(a Atom) Constant {
	return Constant{Atom: a}
}

// Equal compares two expressions structurally. Functions compare by identity,
// and lambdas additionally require the very same captured environment.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Atom == y.Atom
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Define:
		y, ok := b.(*Define)
		return ok && Equal(x.Name, y.Name) && Equal(x.Value, y.Value)
	case *If:
		y, ok := b.(*If)
		return ok &&
			Equal(x.Cond, y.Cond) &&
			Equal(x.IfTrue, y.IfTrue) &&
			Equal(x.IfFalse, y.IfFalse)
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *Lambda:
		y, ok := b.(*Lambda)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		return slices.Equal(x.Params, y.Params) &&
			x.Env == y.Env &&
			Equal(x.Body, y.Body)
	case nil:
		return b == nil
	default:
		return false
	}
}
