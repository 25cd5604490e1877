package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func writeSwiftFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSwiftFile(t, tmpDir, "point.swift", `
struct Point {
    var x: Int
    var y: Int
}
`)

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if result.Tree == nil {
		t.Fatal("expected a parse tree")
	}
	if result.Path != path {
		t.Errorf("Path = %q, want %q", result.Path, path)
	}
	if len(result.Source) == 0 {
		t.Error("expected source bytes to be retained")
	}
}

func TestParseFile_RejectsNonSwift(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSwiftFile(t, tmpDir, "main.go", "package main")

	p := New()
	defer p.Close()

	if _, err := p.ParseFile(path); err == nil {
		t.Error("expected error for non-Swift file")
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.ParseFile("/nonexistent/file.swift"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsSwiftFile(t *testing.T) {
	cases := map[string]bool{
		"a.swift":         true,
		"dir/B.Swift":     true,
		"a.go":            false,
		"swift":           false,
		"a.swiftmodule":   false,
		"noextension":     false,
		"Sources/x.swift": true,
	}
	for path, want := range cases {
		if got := IsSwiftFile(path); got != want {
			t.Errorf("IsSwiftFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFindNodesByType(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`
func first() {}
func second() {}
`)
	result, err := p.Parse(source, "test.swift")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	funcs := FindNodesByType(result.Tree.RootNode(), source, "function_declaration")
	if len(funcs) != 2 {
		t.Errorf("found %d function declarations, want 2", len(funcs))
	}
}

func TestGetNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`func greet() {}`)
	result, err := p.Parse(source, "test.swift")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	funcs := FindNodesByType(result.Tree.RootNode(), source, "function_declaration")
	if len(funcs) != 1 {
		t.Fatalf("found %d functions, want 1", len(funcs))
	}
	name := funcs[0].ChildByFieldName("name")
	if got := GetNodeText(name, source); got != "greet" {
		t.Errorf("function name = %q, want %q", got, "greet")
	}

	if got := GetNodeText(nil, source); got != "" {
		t.Errorf("nil node text = %q, want empty", got)
	}
}

func TestWalkVisitsAllNodes(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`let x = 1`)
	result, err := p.Parse(source, "test.swift")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	count := 0
	Walk(result.Tree.RootNode(), source, func(node *sitter.Node, _ []byte) bool {
		count++
		return true
	})
	if count == 0 {
		t.Error("walk should visit at least the root node")
	}

	typed := 0
	WalkTyped(result.Tree.RootNode(), source, func(node *sitter.Node, nodeType string, _ []byte) bool {
		if nodeType == "" {
			t.Error("node type should not be empty")
		}
		typed++
		return true
	})
	if typed != count {
		t.Errorf("WalkTyped visited %d nodes, Walk visited %d", typed, count)
	}
}
