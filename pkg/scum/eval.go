package scum

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// Eval evaluates expr in env. Only define mutates env; closures capture a
// snapshot of it and calls run in a clone of the closure's snapshot.
func Eval(ctx context.Context, expr Expression, env *Environment) (Expression, error) {
	switch e := expr.(type) {
	case Constant:
		if sym, ok := e.Atom.(Symbol); ok {
			return env.Lookup(Identifier(sym))
		}
		return e, nil
	case *Function:
		return e, nil
	case *Define:
		return evalDefine(ctx, e, env)
	case *If:
		return evalIf(ctx, e, env)
	case *Lambda:
		return &Lambda{
			Params: e.Params,
			Env:    env.Snapshot(),
			Body:   e.Body,
		}, nil
	case List:
		if len(e) == 0 {
			return e, nil
		}
		return evalCall(ctx, e, env)
	case nil:
		return nil, errors.Errorf("cannot evaluate a nil expression")
	default:
		return nil, errors.Errorf("cannot evaluate %T", expr)
	}
}

func evalDefine(ctx context.Context, d *Define, env *Environment) (Expression, error) {
	name := d.Name
	if !isSymbol(name) {
		var err error
		name, err = Eval(ctx, d.Name, env)
		if err != nil {
			return nil, err
		}
	}

	c, ok := name.(Constant)
	if !ok || !isSymbol(c) {
		return nil, &TypeMismatchError{
			Article:      "an",
			ExpectedType: "identifier",
			Input:        d.Name,
			Output:       name,
		}
	}
	id := Identifier(c.Atom.(Symbol))

	val, err := Eval(ctx, d.Value, env)
	if err != nil {
		return nil, err
	}

	// A lambda defined by name can call itself: bind the name inside its own
	// snapshot, which nothing else references yet.
	if _, isLambda := d.Value.(*Lambda); isLambda {
		if closure, ok := val.(*Lambda); ok {
			closure.Env.Define(id, closure)
		}
	}

	env.Define(id, val)
	return val, nil
}

func evalIf(ctx context.Context, i *If, env *Environment) (Expression, error) {
	cond := i.Cond
	if !isBool(cond) {
		var err error
		cond, err = Eval(ctx, i.Cond, env)
		if err != nil {
			return nil, err
		}
	}

	if !isBool(cond) {
		return nil, &TypeMismatchError{
			Article:      "a",
			ExpectedType: "bool",
			Input:        i.Cond,
			Output:       cond,
		}
	}

	if cond.(Constant).Atom.(Bool) {
		return Eval(ctx, i.IfTrue, env)
	}
	return Eval(ctx, i.IfFalse, env)
}

func evalCall(ctx context.Context, form List, env *Environment) (Expression, error) {
	head, err := Eval(ctx, form[0], env)
	if err != nil {
		return nil, err
	}

	switch fn := head.(type) {
	case *Function:
		args := make([]Expression, 0, len(form)-1)
		for _, arg := range form[1:] {
			val, err := Eval(ctx, arg, env)
			if err != nil {
				return nil, err
			}
			args = append(args, val)
		}
		slog.DebugContext(ctx, "applying builtin", "function", fn.Name, "args", len(args))
		return fn.Apply(ctx, args)

	case *Lambda:
		if len(fn.Params) != len(form)-1 {
			return nil, &WrongNumberOfArgsError{
				Expected: len(fn.Params),
				Actual:   len(form) - 1,
			}
		}
		scope := fn.Env.Clone()
		for i, param := range fn.Params {
			// arguments are evaluated in the caller's environment
			val, err := Eval(ctx, form[i+1], env)
			if err != nil {
				return nil, err
			}
			scope.Define(param, val)
		}
		slog.DebugContext(ctx, "applying lambda", "params", len(fn.Params))
		return Eval(ctx, fn.Body, scope)

	default:
		return nil, &TypeMismatchError{
			Article:      "a",
			ExpectedType: "function or lambda",
			Input:        form[0],
			Output:       head,
		}
	}
}

func isSymbol(expr Expression) bool {
	c, ok := expr.(Constant)
	if !ok {
		return false
	}
	_, ok = c.Atom.(Symbol)
	return ok
}

func isBool(expr Expression) bool {
	c, ok := expr.(Constant)
	if !ok {
		return false
	}
	_, ok = c.Atom.(Bool)
	return ok
}
