package scum

import (
	"fmt"
	"strings"
)

// ArityPolicy decides how many operands the relational and arithmetic
// builtins accept.
type ArityPolicy int

const (
	// ArityChained requires at least two operands.
	ArityChained ArityPolicy = iota
	// ArityLenient accepts any number of operands. Relational builtins are
	// trivially true for fewer than two, and arithmetic builtins fold from
	// their identity seed.
	ArityLenient
	// ArityBinary requires exactly two operands.
	ArityBinary
)

var arityNames = map[ArityPolicy]string{
	ArityChained: "chained",
	ArityLenient: "lenient",
	ArityBinary:  "binary",
}

// ParseArityPolicy parses the name of an arity policy.
func ParseArityPolicy(name string) (ArityPolicy, error) {
	for policy, n := range arityNames {
		if strings.EqualFold(name, n) {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("unknown arity policy %q (want chained, lenient or binary)", name)
}

func (p ArityPolicy) String() string {
	if name, ok := arityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ArityPolicy(%d)", int(p))
}

// UnmarshalText lets the policy be decoded from configuration files.
func (p *ArityPolicy) UnmarshalText(text []byte) error {
	policy, err := ParseArityPolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

func (p ArityPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Set and Type let the policy be used as a command-line flag value.
func (p *ArityPolicy) Set(s string) error {
	return p.UnmarshalText([]byte(s))
}

func (p *ArityPolicy) Type() string {
	return "policy"
}

// check validates the operand count for a builtin governed by the policy.
func (p ArityPolicy) check(name string, n int) error {
	switch p {
	case ArityChained:
		if n < 2 {
			return &ArityError{Name: name, Policy: p, Actual: n}
		}
	case ArityBinary:
		if n != 2 {
			return &ArityError{Name: name, Policy: p, Actual: n}
		}
	}
	return nil
}

// Option configures environments and sessions.
type Option func(*options)

type options struct {
	arity   ArityPolicy
	prelude []string
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithArity selects the arity policy for the builtins.
func WithArity(policy ArityPolicy) Option {
	return func(o *options) {
		o.arity = policy
	}
}

// WithPrelude sets the files a session loads on start and after every reset.
// Environments ignore it.
func WithPrelude(paths ...string) Option {
	return func(o *options) {
		o.prelude = paths
	}
}
