package main

import (
	"fmt"
	"strings"

	"github.com/scumlang/scum/pkg/scum"
)

type replCommandDef struct {
	name string
	desc string
}

var replCommandDefs = []replCommandDef{
	{"help", "Show this help"},
	{"quit", "Exit the REPL (also :exit)"},
	{"reset", "Discard all definitions and reload the prelude"},
	{"env", "List definitions; ':env all' includes builtins, ':env NAME' filters"},
	{"load", "Load a file into the session"},
	{"arity", "Show or set the arity policy (chained, lenient, binary); resets the session"},
	{"doc", "Show the documentation of a builtin"},
}

func (r *repl) handleCommand(cmdLine string) {
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		r.println(errorStyle, "empty command")
		return
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(r.out, "Available commands:")
		maxName := 0
		for _, def := range replCommandDefs {
			maxName = max(maxName, len(def.name))
		}
		for _, def := range replCommandDefs {
			r.println(dimStyle, fmt.Sprintf("  :%-*s - %s", maxName, def.name, def.desc))
		}
		fmt.Fprintln(r.out)
		r.println(dimStyle, "Type expressions to evaluate them. Unbalanced parentheses continue on the next line.")
		r.println(dimStyle, "Tab for completion, Up/Down for history, Ctrl-C to discard input, Ctrl-D to exit.")

	case "exit", "quit":
		r.quit = true

	case "reset":
		if err := r.session.Reset(r.ctx); err != nil {
			r.printError(err)
			return
		}
		r.println(resultStyle, "Environment reset.")

	case "env":
		r.envCommand(args)

	case "load":
		if len(args) != 1 {
			r.println(dimStyle, "Usage: :load <file>")
			return
		}
		val, err := r.session.LoadFiles(r.ctx, args[0])
		evaluations.Add(1)
		if err != nil {
			r.printError(err)
			return
		}
		r.println(resultStyle, "=> "+val.String())

	case "arity":
		r.arityCommand(args)

	case "doc":
		r.docCommand(args)

	default:
		r.println(errorStyle, fmt.Sprintf("unknown command: %s (type :help for available commands)", cmd))
	}
}

func (r *repl) envCommand(args []string) {
	filter := ""
	showAll := false
	if len(args) > 0 {
		if args[0] == "all" {
			showAll = true
		} else {
			filter = args[0]
		}
	}

	count := 0
	for name, val := range r.session.Env().Bindings() {
		if _, builtin := val.(*scum.Function); builtin && !showAll && filter == "" {
			continue
		}
		if filter != "" && !strings.Contains(string(name), filter) {
			continue
		}
		r.println(dimStyle, fmt.Sprintf("  %s = %s", name, scum.Repr(val)))
		count++
	}
	if count == 0 {
		r.println(dimStyle, "  no bindings")
	}
}

func (r *repl) arityCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Arity policy: %s\n", r.arity)
		return
	}

	policy, err := scum.ParseArityPolicy(args[0])
	if err != nil {
		r.printError(err)
		return
	}

	r.arity = policy
	r.session = scum.NewSession(append(r.project.Options(), scum.WithArity(policy))...)
	if err := r.session.LoadPrelude(r.ctx); err != nil {
		r.printError(err)
		return
	}
	r.println(resultStyle, fmt.Sprintf("Arity policy set to %s. Environment reset.", policy))
}

func (r *repl) docCommand(args []string) {
	if len(args) != 1 {
		r.println(dimStyle, "Usage: :doc <builtin>")
		return
	}
	val, err := r.session.Env().Lookup(scum.Identifier(args[0]))
	if err != nil {
		r.printError(err)
		return
	}
	fn, ok := val.(*scum.Function)
	if !ok {
		r.println(dimStyle, fmt.Sprintf("%s is not a builtin: %s", args[0], scum.Repr(val)))
		return
	}
	fmt.Fprintf(r.out, "%s - %s\n", fn.Name, fn.Doc)
}
