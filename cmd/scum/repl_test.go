package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterh/liner"
	"github.com/scumlang/scum/pkg/scum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	lines   []string
	prompts []string
	err     error
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", p.err
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func TestReadInput(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		p := &scriptedPrompter{lines: []string{"(+ 1 2)"}}
		src, err := readInput(p, "> ", ".. ")
		require.NoError(t, err)
		assert.Equal(t, "(+ 1 2)", src)
		assert.Equal(t, []string{"> "}, p.prompts)
	})

	t.Run("continues unbalanced input", func(t *testing.T) {
		p := &scriptedPrompter{lines: []string{"(define f", "  (lambda (x)", `    "multi`, `line"))`}}
		src, err := readInput(p, "> ", ".. ")
		require.NoError(t, err)
		assert.Equal(t, "(define f\n  (lambda (x)\n    \"multi\nline\"))", src)
		assert.Equal(t, []string{"> ", ".. ", ".. ", ".. "}, p.prompts)
	})

	t.Run("malformed input is returned as is", func(t *testing.T) {
		p := &scriptedPrompter{lines: []string{"(+ 1 2))"}}
		src, err := readInput(p, "> ", ".. ")
		require.NoError(t, err)
		assert.Equal(t, "(+ 1 2))", src)
	})

	t.Run("commands", func(t *testing.T) {
		p := &scriptedPrompter{lines: []string{":load (oops"}}
		src, err := readInput(p, "> ", ".. ")
		require.NoError(t, err)
		assert.Equal(t, ":load (oops", src)
	})

	t.Run("aborted", func(t *testing.T) {
		p := &scriptedPrompter{lines: []string{"(+ 1"}, err: liner.ErrPromptAborted}
		_, err := readInput(p, "> ", ".. ")
		assert.ErrorIs(t, err, liner.ErrPromptAborted)
	})

	t.Run("end of input", func(t *testing.T) {
		p := &scriptedPrompter{err: io.EOF}
		_, err := readInput(p, "> ", ".. ")
		assert.ErrorIs(t, err, io.EOF)
	})
}

func newTestREPL(t *testing.T, project *scum.ProjectConfig) (*repl, *bytes.Buffer) {
	var out bytes.Buffer
	r := newREPL(context.Background(), Config{}, project, scum.NewSession(project.Options()...), &out, false)
	return r, &out
}

func TestREPLEvaluate(t *testing.T) {
	r, out := newTestREPL(t, nil)

	r.handle("(define scale-by (lambda (s) (lambda (x) (* s x))))")
	r.handle("(define double (scale-by 2))")
	r.handle("(double 3)")
	r.handle(`(println "side effect")`)
	r.handle("(undefined)")
	r.handle("(+ 1")

	assert.Equal(t, `=> #<procedure (s)>
=> #<procedure (x)>
=> 6
side effect
=> side effect
error: unbound identifier: undefined
Error: unexpected end of input, expected )
  --> <input>:1:1
     |
   1 | (+ 1
       ^
     |
`, out.String())
}

func TestREPLCommands(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.scm")
	require.NoError(t, os.WriteFile(lib, []byte("(define answer 42)\nanswer"), 0644))

	t.Run("load and env", func(t *testing.T) {
		r, out := newTestREPL(t, nil)
		r.handle(":load " + lib)
		assert.Equal(t, "=> 42\n", out.String())

		out.Reset()
		r.handle(":env")
		assert.Equal(t, "  answer = 42\n", out.String())

		out.Reset()
		r.handle(":env pri")
		assert.Equal(t, "  println = #<function println>\n", out.String())
	})

	t.Run("reset", func(t *testing.T) {
		r, out := newTestREPL(t, nil)
		r.handle("(define x 1)")
		r.handle(":reset")
		out.Reset()
		r.handle(":env")
		assert.Equal(t, "  no bindings\n", out.String())
	})

	t.Run("reset reloads the prelude", func(t *testing.T) {
		project := &scum.ProjectConfig{Dir: dir, Prelude: []string{"lib.scm"}}
		r, out := newTestREPL(t, project)
		r.handle(":reset")
		out.Reset()
		r.handle("answer")
		assert.Equal(t, "=> 42\n", out.String())
	})

	t.Run("arity", func(t *testing.T) {
		r, out := newTestREPL(t, nil)
		r.handle(":arity")
		assert.Equal(t, "Arity policy: chained\n", out.String())

		out.Reset()
		r.handle("(+)")
		assert.Equal(t, "error: +: expected at least 2 arguments, received 0\n", out.String())

		out.Reset()
		r.handle(":arity lenient")
		r.handle("(+)")
		assert.Equal(t, "Arity policy set to lenient. Environment reset.\n=> 0\n", out.String())

		out.Reset()
		r.handle(":arity strict")
		assert.Contains(t, out.String(), `unknown arity policy "strict"`)
	})

	t.Run("doc", func(t *testing.T) {
		r, out := newTestREPL(t, nil)
		r.handle(":doc list")
		assert.Equal(t, "list - returns a list of its arguments\n", out.String())
	})

	t.Run("quit", func(t *testing.T) {
		r, _ := newTestREPL(t, nil)
		r.handle(":quit")
		assert.True(t, r.quit)
	})

	t.Run("unknown", func(t *testing.T) {
		r, out := newTestREPL(t, nil)
		r.handle(":frobnicate")
		assert.Equal(t, "unknown command: frobnicate (type :help for available commands)\n", out.String())
	})
}

func TestREPLComplete(t *testing.T) {
	r, _ := newTestREPL(t, nil)
	r.handle("(define printer 1)")

	head, completions, tail := r.complete("(pri x)", 4)
	assert.Equal(t, "(", head)
	assert.Equal(t, []string{"printer", "println"}, completions)
	assert.Equal(t, " x)", tail)

	_, completions, _ = r.complete("(la", 3)
	assert.Equal(t, []string{"lambda", "list"}, completions)

	_, completions, _ = r.complete(":re", 3)
	assert.Equal(t, []string{":reset"}, completions)
}

func TestFormatSource(t *testing.T) {
	formatted, err := formatSource("prog.scm", `; comment
(define   square
  (lambda (x) (* x x)))   (println  "hi\n" 1.50)`)
	require.NoError(t, err)
	assert.Equal(t, "(define square (lambda (x) (* x x)))\n(println \"hi\\n\" 1.5)\n", formatted)

	_, err = formatSource("bad.scm", "(")
	var readErr *scum.ReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestFormatFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.scm")
	commented := filepath.Join(dir, "lib", "commented.scm")
	require.NoError(t, os.MkdirAll(filepath.Dir(commented), 0755))
	require.NoError(t, os.WriteFile(plain, []byte("(+  1 2)"), 0644))
	require.NoError(t, os.WriteFile(commented, []byte("; keep me\n(+  1 2)"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("("), 0644))

	files, err := scmFiles([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{plain, commented}, files)

	var out bytes.Buffer
	require.NoError(t, formatFile(&out, commented, false, true))
	assert.Equal(t, commented+"\n", out.String())

	t.Run("rewrites files without comments", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, formatFile(&out, plain, true, false))
		assert.Empty(t, out.String())
		content, err := os.ReadFile(plain)
		require.NoError(t, err)
		assert.Equal(t, "(+ 1 2)\n", string(content))
	})

	t.Run("refuses to drop comments", func(t *testing.T) {
		err := formatFile(io.Discard, commented, true, false)
		assert.ErrorContains(t, err, "not rewriting a file with comments")
		content, err := os.ReadFile(commented)
		require.NoError(t, err)
		assert.Equal(t, "; keep me\n(+  1 2)", string(content))
	})

	assert.True(t, hasComments("(+ 1 2) ; sum"))
	assert.False(t, hasComments(`(println "a;b" "\";")`))
}

func TestFormatError(t *testing.T) {
	_, err := scum.Read("prog.scm", "#x")
	assert.Equal(t, "Error: unknown token \"#x\"\n  --> prog.scm:1:1\n     |\n   1 | #x\n       ^^\n     |\n", formatError(err, false))
	assert.Equal(t, assert.AnError.Error(), formatError(assert.AnError, false))
}
