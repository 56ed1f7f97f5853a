package handler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FilePicker supplies the path of a workbook to import.
type FilePicker interface {
	PickFile(ctx context.Context, title, fallback string) (string, error)
}

// PromptFilePicker asks for a path on the console. An empty answer selects
// the fallback path.
type PromptFilePicker struct {
	console *Console
}

// NewPromptFilePicker constructs a PromptFilePicker.
func NewPromptFilePicker(console *Console) *PromptFilePicker {
	return &PromptFilePicker{console: console}
}

// PickFile prompts for a path and expands a leading ~.
func (p *PromptFilePicker) PickFile(ctx context.Context, title, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	label := title + ": "
	if fallback != "" {
		label = title + " [" + fallback + "]: "
	}
	path, err := p.console.Prompt(label)
	if err != nil {
		return "", err
	}
	path = strings.Trim(path, `"'`)
	if path == "" {
		return fallback, nil
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path), nil
}
