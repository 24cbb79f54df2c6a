package toolbuiltin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cexll/deckagent-go/pkg/tool"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return NewWorkspace(t.TempDir())
}

func TestCreateFolderAndFile(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	out, err := ws.CreateFolder(ctx, map[string]any{"folder_path": "slides/assets"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if out != "Successfully created folder: slides/assets" {
		t.Fatalf("unexpected output: %q", out)
	}

	content := "<!DOCTYPE html><html><body>Slide 1</body></html>"
	out, err = ws.CreateFile(ctx, map[string]any{
		"file_path": "slides/slide_1.html",
		"content":   content,
	})
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if !strings.Contains(out, "Successfully created file: slides/slide_1.html") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(filepath.Join(ws.Root(), "slides", "slide_1.html"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != content {
		t.Fatal("written content differs")
	}
}

func TestReadFileMissing(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.ReadFile(context.Background(), map[string]any{"file_path": "slides/nope.html"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "file not found: slides/nope.html") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateFileRequiresExisting(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.UpdateFile(ctx, map[string]any{
		"file_path": "slides/slide_1.html",
		"content":   "<html></html>",
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "Use create_file instead") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ws.CreateFile(ctx, map[string]any{"file_path": "slides/slide_1.html", "content": "v1"}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	out, err := ws.UpdateFile(ctx, map[string]any{"file_path": "slides/slide_1.html", "content": "v2"})
	if err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if !strings.Contains(out, "Successfully updated file: slides/slide_1.html") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, _ := os.ReadFile(filepath.Join(ws.Root(), "slides", "slide_1.html"))
	if string(data) != "v2" {
		t.Fatalf("content = %q, want v2", data)
	}
}

func TestListFiles(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	out, err := ws.ListFiles(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if out != "Directory does not exist: slides" {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := ws.CreateFolder(ctx, map[string]any{"folder_path": "slides"}); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	out, err = ws.ListFiles(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if out != "No files found in slides" {
		t.Fatalf("unexpected output: %q", out)
	}

	for _, name := range []string{"slide_2.html", "slide_1.html"} {
		if _, err := ws.CreateFile(ctx, map[string]any{"file_path": "slides/" + name, "content": "x"}); err != nil {
			t.Fatalf("CreateFile %s: %v", name, err)
		}
	}
	out, err = ws.ListFiles(ctx, map[string]any{"directory": "slides"})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := "Files in slides:\n  - slides/slide_1.html\n  - slides/slide_2.html"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestPathsCannotEscapeWorkspace(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		fn    func() (string, error)
		input string
	}{
		{"create_file", func() (string, error) {
			return ws.CreateFile(ctx, map[string]any{"file_path": "../evil.html", "content": "x"})
		}, "../evil.html"},
		{"read_file", func() (string, error) {
			return ws.ReadFile(ctx, map[string]any{"file_path": "../../etc/passwd"})
		}, "../../etc/passwd"},
		{"create_folder", func() (string, error) {
			return ws.CreateFolder(ctx, map[string]any{"folder_path": "slides/../.."})
		}, "slides/../.."},
	}
	for _, tc := range cases {
		if _, err := tc.fn(); err == nil || !strings.Contains(err.Error(), "escapes workspace") {
			t.Fatalf("%s(%q): expected escape error, got %v", tc.name, tc.input, err)
		}
	}
}

func TestReturnResultProducesTerminalPayload(t *testing.T) {
	out, err := ReturnResult(context.Background(), map[string]any{
		"success":     true,
		"message":     "Generated 3 slides",
		"slide_count": float64(3), // JSON numbers decode as float64
		"slide_files": []any{"slides/slide_1.html", "slides/slide_2.html", "slides/slide_3.html"},
	})
	if err != nil {
		t.Fatalf("ReturnResult: %v", err)
	}
	term, err := tool.ParseTerminal(out)
	if err != nil {
		t.Fatalf("ParseTerminal: %v", err)
	}
	if !term.Success || term.SlideCount != 3 || len(term.SlideFiles) != 3 {
		t.Fatalf("unexpected terminal: %+v", term)
	}
	if term.Message != "Generated 3 slides" {
		t.Fatalf("message = %q", term.Message)
	}
}

func TestReturnResultRejectsBadTypes(t *testing.T) {
	ctx := context.Background()
	if _, err := ReturnResult(ctx, map[string]any{"success": "yes"}); err == nil {
		t.Fatal("expected error for non-boolean success")
	}
	if _, err := ReturnResult(ctx, map[string]any{"success": true, "slide_files": []any{1, 2}}); err == nil {
		t.Fatal("expected error for non-string slide files")
	}
}

func TestGenerationRegistryDispatch(t *testing.T) {
	ws := newTestWorkspace(t)
	reg, err := NewGenerationRegistry(ws)
	if err != nil {
		t.Fatalf("NewGenerationRegistry: %v", err)
	}

	specs := reg.Specs()
	wantOrder := []string{"create_folder", "create_file", "read_file", "update_file", "list_files", ReturnResultName}
	if len(specs) != len(wantOrder) {
		t.Fatalf("got %d specs, want %d", len(specs), len(wantOrder))
	}
	for i, name := range wantOrder {
		if specs[i].Name != name {
			t.Fatalf("specs[%d] = %s, want %s", i, specs[i].Name, name)
		}
	}
}
