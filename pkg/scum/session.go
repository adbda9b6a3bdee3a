package scum

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Session evaluates expressions one at a time against a persistent top-level
// environment.
//
// Each top-level evaluation runs against a copy of the environment which is
// committed only on success, so a failing expression leaves no partial
// defines behind.
type Session struct {
	opts []Option
	env  *Environment
}

// NewSession returns a session whose environment holds only the builtins.
func NewSession(opts ...Option) *Session {
	return &Session{
		opts: opts,
		env:  NewEnvironment(opts...),
	}
}

// Env returns the session's current top-level environment.
func (s *Session) Env() *Environment {
	return s.env
}

// Reset discards every user definition and reloads the prelude.
func (s *Session) Reset(ctx context.Context) error {
	s.env = NewEnvironment(s.opts...)
	return s.LoadPrelude(ctx)
}

// LoadPrelude loads the files given with WithPrelude.
func (s *Session) LoadPrelude(ctx context.Context) error {
	prelude := newOptions(s.opts).prelude
	if len(prelude) == 0 {
		return nil
	}
	slog.DebugContext(ctx, "loading prelude", "files", prelude)
	if _, err := s.LoadFiles(ctx, prelude...); err != nil {
		return errors.Wrap(err, "loading prelude")
	}
	return nil
}

// Eval evaluates expr and commits its defines if it succeeds.
func (s *Session) Eval(ctx context.Context, expr Expression) (Expression, error) {
	scratch := s.env.Clone()
	val, err := Eval(ctx, expr, scratch)
	if err != nil {
		return nil, err
	}
	s.env = scratch
	return val, nil
}

// EvaluateOne reads source, evaluates it and renders the result in display
// form. Several top-level expressions are evaluated as one list.
func (s *Session) EvaluateOne(ctx context.Context, source string) (string, error) {
	expr, err := Read("<input>", source)
	if err != nil {
		return "", err
	}
	val, err := s.Eval(ctx, expr)
	if err != nil {
		return "", err
	}
	return val.String(), nil
}

// Load evaluates every top-level form of source in order, stopping at the
// first error. Forms evaluated before the error stay defined. It returns the
// value of the last form.
func (s *Session) Load(ctx context.Context, filename, source string) (Expression, error) {
	forms, err := ReadAll(filename, source)
	if err != nil {
		return nil, err
	}
	var last Expression = List{}
	for i, form := range forms {
		val, err := s.Eval(ctx, form)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: form %d", filename, i+1)
		}
		last = val
	}
	return last, nil
}

// LoadFiles reads paths concurrently and loads them in argument order.
func (s *Session) LoadFiles(ctx context.Context, paths ...string) (Expression, error) {
	sources := make([]string, len(paths))

	var eg errgroup.Group
	for i, path := range paths {
		eg.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}
			sources[i] = string(content)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var last Expression = List{}
	for i, path := range paths {
		val, err := s.Load(ctx, path, sources[i])
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}
