package scum

import (
	"context"
	"io"
	"os"
)

type stdoutKey struct{}

// ContextWithStdout routes println output to w.
func ContextWithStdout(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey{}, w)
}

// StdoutFromContext returns the writer installed by ContextWithStdout, or
// os.Stdout.
func StdoutFromContext(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(stdoutKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}
