// Package rpc exposes a scum session over JSON-RPC 2.0.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/scumlang/scum/pkg/scum"
)

// EvaluationFailed is the error code for read, evaluation and environment
// errors. The error data carries an ErrorData.
const EvaluationFailed jrpc2.Code = -32000

// Service serves one session. Calls are serialized.
type Service struct {
	mu      sync.Mutex
	session *scum.Session
}

func NewService(session *scum.Session) *Service {
	return &Service{session: session}
}

type EvalParams struct {
	Source string `json:"source"`
}

type LoadParams struct {
	Filename string `json:"filename"`
	Source   string `json:"source"`
}

// Result is the display form of a value along with whatever println wrote
// while producing it.
type Result struct {
	Result string `json:"result"`
	Output string `json:"output,omitempty"`
}

type Binding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ErrorData accompanies EvaluationFailed errors.
type ErrorData struct {
	Kind       scum.ErrorKind       `json:"kind"`
	Output     string               `json:"output,omitempty"`
	Location   *scum.SourceLocation `json:"location,omitempty"`
	Incomplete bool                 `json:"incomplete,omitempty"`
}

// Methods returns the method table for a jrpc2 server.
func (s *Service) Methods() handler.Map {
	return handler.Map{
		"Eval":     handler.New(s.Eval),
		"Load":     handler.New(s.Load),
		"Reset":    handler.New(s.Reset),
		"Bindings": handler.New(s.Bindings),
	}
}

// Eval evaluates one expression against the session.
func (s *Service) Eval(ctx context.Context, params EvalParams) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out bytes.Buffer
	ctx = scum.ContextWithStdout(ctx, &out)

	res, err := s.session.EvaluateOne(ctx, params.Source)
	if err != nil {
		return Result{}, evaluationFailed(err, out.String())
	}
	return Result{Result: res, Output: out.String()}, nil
}

// Load evaluates every form of a source file against the session.
func (s *Service) Load(ctx context.Context, params LoadParams) (Result, error) {
	if params.Filename == "" {
		return Result{}, jrpc2.Errorf(jrpc2.InvalidParams, "missing filename")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out bytes.Buffer
	ctx = scum.ContextWithStdout(ctx, &out)

	val, err := s.session.Load(ctx, params.Filename, params.Source)
	if err != nil {
		return Result{}, evaluationFailed(err, out.String())
	}
	return Result{Result: val.String(), Output: out.String()}, nil
}

// Reset discards every definition made in the session and reloads its
// prelude.
func (s *Service) Reset(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out bytes.Buffer
	ctx = scum.ContextWithStdout(ctx, &out)

	if err := s.session.Reset(ctx); err != nil {
		return nil, evaluationFailed(err, out.String())
	}
	slog.DebugContext(ctx, "session reset")
	return map[string]any{}, nil
}

// Bindings lists every visible binding in name order.
func (s *Service) Bindings(ctx context.Context) ([]Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bindings := []Binding{}
	for name, val := range s.session.Env().Bindings() {
		bindings = append(bindings, Binding{
			Name:  string(name),
			Value: scum.Repr(val),
		})
	}
	return bindings, nil
}

func evaluationFailed(err error, output string) error {
	kind := scum.KindOf(err)
	if kind == "" {
		return err
	}

	data := ErrorData{
		Kind:   kind,
		Output: output,
	}
	var readErr *scum.ReadError
	if errors.As(err, &readErr) {
		loc := readErr.Location
		data.Location = &loc
		data.Incomplete = readErr.Incomplete
	}

	raw, merr := json.Marshal(data)
	if merr != nil {
		return err
	}
	return &jrpc2.Error{
		Code:    EvaluationFailed,
		Message: err.Error(),
		Data:    raw,
	}
}

// Serve answers line-delimited JSON-RPC requests from r on w until r is
// exhausted.
func Serve(ctx context.Context, session *scum.Session, r io.Reader, w io.WriteCloser) error {
	logger := slog.Default()
	srv := jrpc2.NewServer(NewService(session).Methods(), &jrpc2.ServerOptions{
		Logger: func(text string) { logger.Debug(text) },
		// requests share one environment and must run in arrival order
		Concurrency: 1,
	})

	logger.InfoContext(ctx, "serving JSON-RPC")
	srv.Start(channel.Line(r, w))
	err := srv.Wait()
	logger.InfoContext(ctx, "JSON-RPC server closed", "error", err)
	return err
}
