package scum

import (
	"iter"
	"maps"
	"slices"
)

// maxFrameDepth bounds the frame chain; deeper chains are flattened when the
// next snapshot is taken.
const maxFrameDepth = 32

// frame is an immutable set of bindings shared between environments.
type frame struct {
	vars   map[Identifier]Expression
	parent *frame
	depth  int
}

// Environment maps identifiers to values.
//
// An Environment owns its innermost bindings and shares a chain of frozen
// frames with every closure captured from it. Frozen frames are never written
// to, so a define on one side of a snapshot is never observed on the other.
type Environment struct {
	vars   map[Identifier]Expression
	parent *frame
}

// NewEnvironment returns an environment holding only the builtins.
func NewEnvironment(opts ...Option) *Environment {
	o := newOptions(opts)
	root := &frame{
		vars:  make(map[Identifier]Expression),
		depth: 1,
	}
	ForEachBuiltin(func(def BuiltinDef) {
		root.vars[Identifier(def.Name)] = def.function(o.arity)
	})
	return &Environment{parent: root}
}

// Lookup returns the value bound to id.
func (env *Environment) Lookup(id Identifier) (Expression, error) {
	if val, ok := env.vars[id]; ok {
		return val, nil
	}
	for f := env.parent; f != nil; f = f.parent {
		if val, ok := f.vars[id]; ok {
			return val, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// Define binds id to val, replacing any existing binding including builtins.
func (env *Environment) Define(id Identifier, val Expression) {
	if env.vars == nil {
		env.vars = make(map[Identifier]Expression)
	}
	env.vars[id] = val
}

// Snapshot freezes the current bindings and returns a new environment that
// shares them. The receiver continues with an empty set of owned bindings on
// top of the same frozen chain.
func (env *Environment) Snapshot() *Environment {
	if len(env.vars) > 0 {
		env.parent = &frame{
			vars:   env.vars,
			parent: env.parent,
			depth:  env.parent.depthOrZero() + 1,
		}
		env.vars = nil
	}
	if env.parent.depthOrZero() > maxFrameDepth {
		env.parent = env.parent.flatten()
	}
	return &Environment{parent: env.parent}
}

// Clone returns an independent copy of env. Cloning a nil environment yields
// an empty one.
func (env *Environment) Clone() *Environment {
	if env == nil {
		return &Environment{}
	}
	return &Environment{
		vars:   maps.Clone(env.vars),
		parent: env.parent,
	}
}

// Bindings yields every visible binding in identifier order, with inner
// bindings shadowing outer ones.
func (env *Environment) Bindings() iter.Seq2[Identifier, Expression] {
	merged := env.parent.flatten().vars
	maps.Copy(merged, env.vars)
	keys := slices.Sorted(maps.Keys(merged))
	return func(yield func(Identifier, Expression) bool) {
		for _, k := range keys {
			if !yield(k, merged[k]) {
				return
			}
		}
	}
}

func (f *frame) depthOrZero() int {
	if f == nil {
		return 0
	}
	return f.depth
}

// flatten merges the chain into a single new frame.
func (f *frame) flatten() *frame {
	var chain []*frame
	for cur := f; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	merged := make(map[Identifier]Expression)
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(merged, chain[i].vars)
	}
	return &frame{vars: merged, depth: 1}
}
