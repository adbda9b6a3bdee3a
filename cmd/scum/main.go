package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/ansi"
	"github.com/kr/pretty"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/scumlang/scum/pkg/rpc"
	"github.com/scumlang/scum/pkg/scum"
	"github.com/spf13/cobra"
)

// Config holds the application configuration
type Config struct {
	Debug     bool
	DebugAddr string
	Arity     scum.ArityPolicy
	Expr      string
	Print     bool
	File      string

	// set when --arity was given, so it overrides scum.toml
	arityFlag bool
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "scum [flags] [file]",
		Short: "Scum interpreter",
		Long: `Scum is a small Scheme-like expression language.
Without a file it starts an interactive REPL.`,
		Example: `  # Run a program
  scum program.scm

  # Run a program and print the value of every top-level form
  scum --print program.scm

  # Evaluate a single expression
  scum -e '(+ 1 2)'

  # Start the REPL with debug logging enabled
  scum --debug`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.arityFlag = cmd.Flags().Changed("arity")
			setupLogging(cfg.Debug)
			if cfg.DebugAddr != "" {
				return setupDebugHandlers(cfg.DebugAddr)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cfg.Expr != "":
				return runExpr(cmd.Context(), cfg)
			case len(args) == 1:
				cfg.File = args[0]
				return run(cmd.Context(), cfg)
			default:
				return runREPL(cmd.Context(), cfg)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfg.DebugAddr, "debug-addr", "", "Serve pprof and expvar handlers on this address")
	rootCmd.PersistentFlags().Var(&cfg.Arity, "arity", "Operand rule for arithmetic and comparison builtins (chained, lenient, binary)")
	rootCmd.Flags().StringVarP(&cfg.Expr, "eval", "e", "", "Evaluate an expression and print the result")
	rootCmd.Flags().BoolVarP(&cfg.Print, "print", "p", false, "Print the value of every top-level form")

	rootCmd.AddCommand(serveCmd(&cfg))
	rootCmd.AddCommand(fmtCmd())

	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, formatError(err, isTerminal(os.Stderr)))
		}),
	); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default logger. Terminals get colored output.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// formatError renders read errors with the offending source line.
func formatError(err error, color bool) string {
	var readErr *scum.ReadError
	if errors.As(err, &readErr) {
		out := readErr.FormatWithHighlighting()
		if !color {
			out = ansi.Strip(out)
		}
		return out
	}
	return err.Error()
}

// newSession builds a session from scum.toml and the command-line flags and
// loads the prelude.
func newSession(ctx context.Context, cfg Config) (*scum.Session, *scum.ProjectConfig, error) {
	cwd, _ := os.Getwd()
	configPath, project, err := scum.FindProjectConfig(cwd)
	if err != nil {
		return nil, nil, err
	}
	if project != nil {
		slog.DebugContext(ctx, "loaded project config", "path", configPath, "arity", project.Arity)
	}

	opts := project.Options()
	if cfg.arityFlag {
		opts = append(opts, scum.WithArity(cfg.Arity))
	}
	session := scum.NewSession(opts...)
	if err := session.LoadPrelude(ctx); err != nil {
		return nil, nil, err
	}
	return session, project, nil
}

func run(ctx context.Context, cfg Config) error {
	session, _, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.File, err)
	}

	forms, err := scum.ReadAll(cfg.File, string(source))
	if err != nil {
		return err
	}

	if cfg.Debug {
		_, _ = pretty.Println(forms)
	}

	for _, form := range forms {
		val, err := session.Eval(ctx, form)
		evaluations.Add(1)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.File, err)
		}
		if cfg.Print {
			fmt.Println(val)
		}
	}
	return nil
}

func runExpr(ctx context.Context, cfg Config) error {
	session, _, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	out, err := session.EvaluateOne(ctx, cfg.Expr)
	evaluations.Add(1)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func serveCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve a session over JSON-RPC on stdin and stdout",
		Long: `Serve a session over line-delimited JSON-RPC 2.0 on stdin and stdout.

Methods: Eval {source}, Load {filename, source}, Reset, Bindings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, _, err := newSession(ctx, *cfg)
			if err != nil {
				return err
			}
			return rpc.Serve(ctx, session, os.Stdin, os.Stdout)
		},
	}
}
