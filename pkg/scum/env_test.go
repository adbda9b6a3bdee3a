package scum

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentLookup(t *testing.T) {
	env := NewEnvironment()

	_, err := env.Lookup("missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unbound identifier: missing", err.Error())

	env.Define("a", Lit(Int(1)))
	env.Define("b", Lit(Int(2)))
	env.Define("a", Lit(Int(3)))

	a, err := env.Lookup("a")
	require.NoError(t, err)
	assert.True(t, Equal(Lit(Int(3)), a))

	b, err := env.Lookup("b")
	require.NoError(t, err)
	assert.True(t, Equal(Lit(Int(2)), b))
}

func TestEnvironmentBuiltins(t *testing.T) {
	env := NewEnvironment()
	for _, name := range []Identifier{"=", "!=", ">", "<", ">=", "<=", "+", "-", "*", "/", "list", "println"} {
		val, err := env.Lookup(name)
		require.NoError(t, err, name)
		fn, ok := val.(*Function)
		require.True(t, ok, name)
		assert.Equal(t, string(name), fn.Name)
	}

	// every environment gets its own instances bound to its policy
	other := NewEnvironment(WithArity(ArityBinary))
	x, _ := env.Lookup("+")
	y, _ := other.Lookup("+")
	assert.False(t, Equal(x, y))
}

func TestEnvironmentSnapshot(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", Lit(Int(1)))

	snap := env.Snapshot()
	env.Define("x", Lit(Int(2)))
	env.Define("y", Lit(Int(3)))
	snap.Define("z", Lit(Int(4)))

	x, err := snap.Lookup("x")
	require.NoError(t, err)
	assert.True(t, Equal(Lit(Int(1)), x))

	_, err = snap.Lookup("y")
	assert.ErrorAs(t, err, new(*NotFoundError))

	_, err = env.Lookup("z")
	assert.ErrorAs(t, err, new(*NotFoundError))

	x, err = env.Lookup("x")
	require.NoError(t, err)
	assert.True(t, Equal(Lit(Int(2)), x))
}

func TestEnvironmentClone(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", Lit(Int(1)))

	clone := env.Clone()
	clone.Define("x", Lit(Int(2)))
	clone.Define("y", Lit(Int(3)))

	x, err := env.Lookup("x")
	require.NoError(t, err)
	assert.True(t, Equal(Lit(Int(1)), x))
	_, err = env.Lookup("y")
	assert.Error(t, err)

	var nilEnv *Environment
	empty := nilEnv.Clone()
	_, err = empty.Lookup("+")
	assert.Error(t, err)
}

func TestEnvironmentDeepSnapshots(t *testing.T) {
	env := NewEnvironment()
	var snaps []*Environment
	for i := range 3 * maxFrameDepth {
		env.Define(Identifier(fmt.Sprintf("v%d", i)), Lit(Int(i)))
		env.Define("latest", Lit(Int(i)))
		snaps = append(snaps, env.Snapshot())
		assert.LessOrEqual(t, env.parent.depthOrZero(), maxFrameDepth+1)
	}

	for i, snap := range snaps {
		latest, err := snap.Lookup("latest")
		require.NoError(t, err)
		assert.True(t, Equal(Lit(Int(i)), latest), "snapshot %d", i)

		_, err = snap.Lookup(Identifier(fmt.Sprintf("v%d", i+1)))
		assert.Error(t, err, "snapshot %d sees a later binding", i)
	}
}

func TestEnvironmentBindings(t *testing.T) {
	env := NewEnvironment()
	env.Define("zeta", Lit(Int(1)))
	env.Snapshot()
	env.Define("alpha", Lit(Int(2)))
	env.Define("zeta", Lit(Int(3)))

	var names []Identifier
	values := map[Identifier]Expression{}
	for name, val := range env.Bindings() {
		names = append(names, name)
		values[name] = val
	}

	assert.IsIncreasing(t, names)
	assert.Contains(t, names, Identifier("+"))
	assert.True(t, Equal(Lit(Int(3)), values["zeta"]))
	assert.True(t, Equal(Lit(Int(2)), values["alpha"]))
}
