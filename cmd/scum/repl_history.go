package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/peterh/liner"
	"github.com/scumlang/scum/pkg/scum"
)

// historyFilePath returns the REPL history file: the one configured in
// scum.toml, or $XDG_DATA_HOME/scum/history.
func historyFilePath(project *scum.ProjectConfig) string {
	if project != nil && project.REPL.History != "" {
		path := project.REPL.History
		if !filepath.IsAbs(path) {
			path = filepath.Join(project.Dir, path)
		}
		return path
	}
	path, err := xdg.DataFile(filepath.Join("scum", "history"))
	if err != nil {
		return filepath.Join(os.TempDir(), "scum_history") // last resort fallback
	}
	return path
}

func loadHistory(ln *liner.State, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		slog.Debug("failed to read history", "path", path, "error", err)
	}
}

func saveHistory(ln *liner.State, path string) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.Create(path)
	if err != nil {
		slog.Debug("failed to save history", "path", path, "error", err)
		return
	}
	defer f.Close()
	_, _ = ln.WriteHistory(f)
}
