package scum

import (
	"context"
	"fmt"
	"math"
)

// BuiltinDef defines a builtin function.
type BuiltinDef struct {
	Name string
	Doc  string

	// Operands marks builtins whose operand count is governed by the
	// configured ArityPolicy.
	Operands bool

	Impl func(ctx context.Context, args []Expression) (Expression, error)
}

// function instantiates the builtin under the given arity policy.
func (def BuiltinDef) function(policy ArityPolicy) *Function {
	impl := def.Impl
	if def.Operands {
		name := def.Name
		impl = func(ctx context.Context, args []Expression) (Expression, error) {
			if err := policy.check(name, len(args)); err != nil {
				return nil, err
			}
			return def.Impl(ctx, args)
		}
	}
	return &Function{
		Name: def.Name,
		Doc:  def.Doc,
		Fn:   impl,
	}
}

var registry []BuiltinDef

// Register adds a builtin definition to the registry. Environments created
// afterwards bind it.
func Register(def BuiltinDef) {
	registry = append(registry, def)
}

// ForEachBuiltin iterates over all registered builtins.
func ForEachBuiltin(fn func(BuiltinDef)) {
	for _, def := range registry {
		fn(def)
	}
}

// BuiltinBuilder provides a fluent API for defining builtin functions.
type BuiltinBuilder struct {
	def BuiltinDef
}

// Builtin starts defining a builtin called name.
func Builtin(name string) *BuiltinBuilder {
	return &BuiltinBuilder{
		def: BuiltinDef{Name: name},
	}
}

// Doc sets the documentation string.
func (b *BuiltinBuilder) Doc(doc string) *BuiltinBuilder {
	b.def.Doc = doc
	return b
}

// Operands subjects the builtin to the arity policy.
func (b *BuiltinBuilder) Operands() *BuiltinBuilder {
	b.def.Operands = true
	return b
}

// Impl sets the implementation and registers the builtin.
func (b *BuiltinBuilder) Impl(fn func(context.Context, []Expression) (Expression, error)) {
	b.def.Impl = fn
	Register(b.def)
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	relational("=", "reports whether all operands are equal", true,
		func(a, b int64) bool { return a == b },
		func(a, b float64) bool { return a == b })
	relational("!=", "reports whether adjacent operands differ", true,
		func(a, b int64) bool { return a != b },
		func(a, b float64) bool { return a != b })
	relational(">", "reports whether operands are strictly decreasing", false,
		func(a, b int64) bool { return a > b },
		func(a, b float64) bool { return a > b })
	relational("<", "reports whether operands are strictly increasing", false,
		func(a, b int64) bool { return a < b },
		func(a, b float64) bool { return a < b })
	relational(">=", "reports whether operands are non-increasing", false,
		func(a, b int64) bool { return a >= b },
		func(a, b float64) bool { return a >= b })
	relational("<=", "reports whether operands are non-decreasing", false,
		func(a, b int64) bool { return a <= b },
		func(a, b float64) bool { return a <= b })

	arithmetic("+", "adds numbers", 0,
		func(a, b int64) (int64, bool) {
			c := a + b
			return c, (b > 0) == (c > a) || b == 0
		},
		func(a, b float64) float64 { return a + b })
	arithmetic("-", "subtracts numbers from the first", 0,
		func(a, b int64) (int64, bool) {
			c := a - b
			return c, (b > 0) == (c < a) || b == 0
		},
		func(a, b float64) float64 { return a - b })
	arithmetic("*", "multiplies numbers", 1,
		func(a, b int64) (int64, bool) {
			if a == -1 && b == math.MinInt64 || b == -1 && a == math.MinInt64 {
				return 0, false
			}
			c := a * b
			return c, a == 0 || c/a == b
		},
		func(a, b float64) float64 { return a * b })
	arithmetic("/", "divides the first number by the rest", 1,
		func(a, b int64) (int64, bool) {
			if a == math.MinInt64 && b == -1 {
				return 0, false
			}
			return a / b, true
		},
		func(a, b float64) float64 { return a / b })

	Builtin("list").
		Doc("returns a list of its arguments").
		Impl(func(ctx context.Context, args []Expression) (Expression, error) {
			return append(List{}, args...), nil
		})

	Builtin("println").
		Doc("prints its argument, or a list of its arguments, and returns it").
		Impl(func(ctx context.Context, args []Expression) (Expression, error) {
			var val Expression
			if len(args) == 1 {
				val = args[0]
			} else {
				val = append(List{}, args...)
			}
			fmt.Fprintln(StdoutFromContext(ctx), val)
			return val, nil
		})
}

// relational registers a chained comparison. Equality operators also accept
// booleans, strings and symbols of matching kinds.
func relational(name, doc string, equality bool, intOp func(a, b int64) bool, floatOp func(a, b float64) bool) {
	compare := func(x, y Expression) (bool, error) {
		xc, xok := x.(Constant)
		yc, yok := y.(Constant)
		if xok && yok {
			if a, b, ok := asInts(xc, yc); ok {
				return intOp(a, b), nil
			}
			if a, b, ok := asFloats(xc, yc); ok {
				return floatOp(a, b), nil
			}
		}
		if !equality {
			return false, &NonNumericArgsError{Left: x, Right: y}
		}
		if xok && yok && sameKind(xc.Atom, yc.Atom) {
			eq := xc.Atom == yc.Atom
			if name == "!=" {
				return !eq, nil
			}
			return eq, nil
		}
		return false, &DifferentConstantTypesError{Left: x, Right: y}
	}

	Builtin(name).
		Doc(doc).
		Operands().
		Impl(func(ctx context.Context, args []Expression) (Expression, error) {
			result := true
			for i := 1; i < len(args); i++ {
				ok, err := compare(args[i-1], args[i])
				if err != nil {
					return nil, err
				}
				result = result && ok
			}
			return Lit(Bool(result)), nil
		})
}

// arithmetic registers a left fold. With two or more operands the fold starts
// from the first operand; with fewer it starts from seed. intOp reports false
// when the result does not fit in an Int; integer division by zero is caught
// before intOp runs.
func arithmetic(name, doc string, seed int64, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) {
	apply := func(x, y Expression) (Expression, error) {
		xc, xok := x.(Constant)
		yc, yok := y.(Constant)
		if xok && yok {
			if a, b, ok := asInts(xc, yc); ok {
				if name == "/" && b == 0 {
					return nil, &DivisionByZeroError{Dividend: x}
				}
				res, ok := intOp(a, b)
				if !ok {
					return nil, &IntegerOverflowError{Op: name, Left: x, Right: y}
				}
				return Lit(Int(res)), nil
			}
			if a, b, ok := asFloats(xc, yc); ok {
				return Lit(Float(floatOp(a, b))), nil
			}
		}
		return nil, &NonNumericArgsError{Left: x, Right: y}
	}

	Builtin(name).
		Doc(doc).
		Operands().
		Impl(func(ctx context.Context, args []Expression) (Expression, error) {
			var acc Expression = Lit(Int(seed))
			rest := args
			if len(args) >= 2 {
				acc, rest = args[0], args[1:]
			}
			for _, arg := range rest {
				var err error
				acc, err = apply(acc, arg)
				if err != nil {
					return nil, err
				}
			}
			return acc, nil
		})
}

func asInts(x, y Constant) (int64, int64, bool) {
	a, aok := x.Atom.(Int)
	b, bok := y.Atom.(Int)
	return int64(a), int64(b), aok && bok
}

func asFloats(x, y Constant) (float64, float64, bool) {
	a, aok := numeric(x.Atom)
	b, bok := numeric(y.Atom)
	return a, b, aok && bok
}

func numeric(a Atom) (float64, bool) {
	switch n := a.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

func sameKind(a, b Atom) bool {
	switch a.(type) {
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Str:
		_, ok := b.(Str)
		return ok
	case Symbol:
		_, ok := b.(Symbol)
		return ok
	default:
		return false
	}
}
