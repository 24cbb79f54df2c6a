package toolbuiltin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultMaxFileBytes = 1 << 20 // 1 MiB per slide file

// Workspace exposes the filesystem tool handlers a generation session may
// call. All paths are resolved relative to the workspace root and must stay
// inside it.
type Workspace struct {
	root     string
	maxBytes int64
}

// NewWorkspace constructs a Workspace rooted at the provided directory, or
// the current directory when root is empty.
func NewWorkspace(root string) *Workspace {
	resolved := strings.TrimSpace(root)
	if resolved == "" {
		resolved = "."
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	return &Workspace{root: resolved, maxBytes: defaultMaxFileBytes}
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

func (w *Workspace) resolve(rel string) (string, error) {
	trimmed := strings.TrimSpace(rel)
	if trimmed == "" {
		return "", errors.New("path cannot be empty")
	}
	candidate := filepath.Clean(filepath.Join(w.root, trimmed))
	inside, err := filepath.Rel(w.root, candidate)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", trimmed)
	}
	return candidate, nil
}

// CreateFolder creates a directory (and parents) under the workspace.
func (w *Workspace) CreateFolder(_ context.Context, input map[string]any) (string, error) {
	rel, err := stringArg(input, "folder_path")
	if err != nil {
		return "", err
	}
	path, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return fmt.Sprintf("Successfully created folder: %s", rel), nil
}

// CreateFile writes a new file, creating parent directories as needed.
func (w *Workspace) CreateFile(_ context.Context, input map[string]any) (string, error) {
	rel, err := stringArg(input, "file_path")
	if err != nil {
		return "", err
	}
	content, err := stringArg(input, "content")
	if err != nil {
		return "", err
	}
	path, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	if w.maxBytes > 0 && int64(len(content)) > w.maxBytes {
		return "", fmt.Errorf("content exceeds %d bytes limit", w.maxBytes)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("Successfully created file: %s (%d characters)", rel, len(content)), nil
}

// ReadFile returns the contents of an existing file.
func (w *Workspace) ReadFile(_ context.Context, input map[string]any) (string, error) {
	rel, err := stringArg(input, "file_path")
	if err != nil {
		return "", err
	}
	path, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file not found: %s", rel)
		}
		return "", fmt.Errorf("read file: %w", err)
	}
	return fmt.Sprintf("File contents of %s:\n\n%s", rel, data), nil
}

// UpdateFile overwrites an existing file; it refuses to create new ones so
// the model keeps create/update intent explicit.
func (w *Workspace) UpdateFile(_ context.Context, input map[string]any) (string, error) {
	rel, err := stringArg(input, "file_path")
	if err != nil {
		return "", err
	}
	content, err := stringArg(input, "content")
	if err != nil {
		return "", err
	}
	path, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s. Use create_file instead", rel)
		}
		return "", fmt.Errorf("stat file: %w", err)
	}
	if w.maxBytes > 0 && int64(len(content)) > w.maxBytes {
		return "", fmt.Errorf("content exceeds %d bytes limit", w.maxBytes)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("update file: %w", err)
	}
	return fmt.Sprintf("Successfully updated file: %s (%d characters)", rel, len(content)), nil
}

// ListFiles enumerates regular files in a workspace directory, sorted by
// name. Dotfiles are skipped.
func (w *Workspace) ListFiles(_ context.Context, input map[string]any) (string, error) {
	dir := "slides"
	if raw, ok := input["directory"]; ok {
		s, err := coerceString(raw)
		if err != nil {
			return "", fmt.Errorf("directory must be string: %w", err)
		}
		if strings.TrimSpace(s) != "" {
			dir = strings.TrimSpace(s)
		}
	}
	path, err := w.resolve(dir)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Sprintf("Directory does not exist: %s", dir), nil
		}
		return "", fmt.Errorf("list files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.ToSlash(filepath.Join(dir, entry.Name())))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Sprintf("No files found in %s", dir), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Files in %s:\n", dir)
	for _, f := range files {
		fmt.Fprintf(&b, "  - %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func stringArg(input map[string]any, key string) (string, error) {
	if input == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	raw, ok := input[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, err := coerceString(raw)
	if err != nil {
		return "", fmt.Errorf("%s must be string: %w", key, err)
	}
	return s, nil
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("got %T", raw)
	}
}
