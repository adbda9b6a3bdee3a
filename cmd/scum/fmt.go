package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scumlang/scum/pkg/scum"
	"github.com/spf13/cobra"
)

func fmtCmd() *cobra.Command {
	var (
		write bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [flags] [path...]",
		Short: "Format Scum source files",
		Long: `Format Scum source files by re-printing every top-level form in
canonical form, one per line.

Directories are searched recursively for .scm files. Formatted source goes to
stdout unless -w is given. Comments cannot be kept, so -w refuses to rewrite a
file that has any.`,
		Example: `  # Format a file and print to stdout
  scum fmt program.scm

  # Rewrite every .scm file under ./lib
  scum fmt -w ./lib`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := scmFiles(args)
			if err != nil {
				return err
			}
			for _, file := range files {
				if err := formatFile(cmd.OutOrStdout(), file, write, list); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List files whose formatting differs")

	return cmd
}

// scmFiles expands directories in paths to the .scm files beneath them.
func scmFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				return err
			case p == path && !d.IsDir():
				files = append(files, p)
			case !d.IsDir() && filepath.Ext(p) == ".scm":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func formatFile(out io.Writer, file string, write, list bool) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	formatted, err := formatSource(file, string(source))
	if err != nil {
		return err
	}
	changed := formatted != string(source)

	if write && changed {
		if hasComments(string(source)) {
			return fmt.Errorf("%s: not rewriting a file with comments", file)
		}
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			return err
		}
	}
	switch {
	case list:
		if changed {
			fmt.Fprintln(out, file)
		}
	case !write:
		fmt.Fprint(out, formatted)
	}
	return nil
}

// formatSource re-prints every top-level form in read-back form.
func formatSource(filename, source string) (string, error) {
	forms, err := scum.ReadAll(filename, source)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, form := range forms {
		buf.WriteString(scum.Repr(form))
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// hasComments reports whether source has a ; outside of a string literal.
func hasComments(source string) bool {
	inString, escaped := false, false
	for _, ch := range source {
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case ch == ';' && !inString:
			return true
		}
	}
	return false
}
