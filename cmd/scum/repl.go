package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/peterh/liner"
	"github.com/scumlang/scum/pkg/scum"
)

const (
	defaultPrompt = "λ>  "
	contPrompt    = "..  "
	banner        = "scum v0.1.0 - type :help for commands, Ctrl-D to exit"
)

var (
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	welcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// repl holds the state of an interactive session.
type repl struct {
	ctx     context.Context
	project *scum.ProjectConfig
	session *scum.Session
	arity   scum.ArityPolicy

	out   io.Writer
	color bool
	quit  bool
}

func newREPL(ctx context.Context, cfg Config, project *scum.ProjectConfig, session *scum.Session, out io.Writer, color bool) *repl {
	arity := cfg.Arity
	if !cfg.arityFlag && project != nil {
		arity = project.Arity
	}
	return &repl{
		ctx:     scum.ContextWithStdout(ctx, out),
		project: project,
		session: session,
		arity:   arity,
		out:     out,
		color:   color,
	}
}

func runREPL(ctx context.Context, cfg Config) error {
	session, project, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	r := newREPL(ctx, cfg, project, session, os.Stdout, isTerminal(os.Stdout))

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(r.complete)

	histPath := historyFilePath(project)
	loadHistory(ln, histPath)
	defer saveHistory(ln, histPath)

	prompt := defaultPrompt
	if project != nil && project.REPL.Prompt != "" {
		prompt = project.REPL.Prompt
	}

	r.println(welcomeStyle, banner)
	for !r.quit {
		src, err := readInput(ln, prompt, contPrompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			r.println(dimStyle, "^C")
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		r.handle(src)
	}
	return nil
}

type prompter interface {
	Prompt(prompt string) (string, error)
}

// readInput reads one complete input, prompting for more lines while the
// source ends inside a list or string.
func readInput(p prompter, prompt, cont string) (string, error) {
	var buf strings.Builder
	for {
		current := prompt
		if buf.Len() > 0 {
			current = cont
		}
		line, err := p.Prompt(current)
		if err != nil {
			return "", err
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		src := buf.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, nil
		}

		_, err = scum.ReadAll("<input>", src)
		var readErr *scum.ReadError
		if errors.As(err, &readErr) && readErr.Incomplete {
			continue
		}
		return src, nil
	}
}

// handle evaluates src or runs it as a command.
func (r *repl) handle(src string) {
	trimmed := strings.TrimSpace(src)
	if cmd, ok := strings.CutPrefix(trimmed, ":"); ok {
		r.handleCommand(cmd)
		return
	}

	out, err := r.session.EvaluateOne(r.ctx, src)
	evaluations.Add(1)
	if err != nil {
		r.printError(err)
		return
	}
	r.println(resultStyle, "=> "+out)
}

func (r *repl) render(style lipgloss.Style, text string) string {
	out := style.Render(text)
	if !r.color {
		out = ansi.Strip(out)
	}
	return out
}

func (r *repl) println(style lipgloss.Style, text string) {
	fmt.Fprintln(r.out, r.render(style, text))
}

func (r *repl) printError(err error) {
	var readErr *scum.ReadError
	if errors.As(err, &readErr) {
		fmt.Fprint(r.out, formatError(err, r.color))
		return
	}
	r.println(errorStyle, "error: "+err.Error())
}

// complete offers identifiers, special forms and commands for the word
// before the cursor.
func (r *repl) complete(line string, pos int) (head string, completions []string, tail string) {
	runes := []rune(line)
	pos = min(pos, len(runes))
	start := pos
	for start > 0 && !isWordBoundary(runes[start-1]) {
		start--
	}
	head, word, tail := string(runes[:start]), string(runes[start:pos]), string(runes[pos:])

	var candidates []string
	if start == 0 && strings.HasPrefix(word, ":") {
		for _, def := range replCommandDefs {
			candidates = append(candidates, ":"+def.name)
		}
	} else {
		candidates = append(candidates, "define", "if", "lambda")
		for name := range r.session.Env().Bindings() {
			candidates = append(candidates, string(name))
		}
	}

	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			completions = append(completions, c)
		}
	}
	slices.Sort(completions)
	return head, slices.Compact(completions), tail
}

func isWordBoundary(r rune) bool {
	return r == '(' || r == ')' || r == '"' || r == ' ' || r == '\t' || r == '\n'
}
