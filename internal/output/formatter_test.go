package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// deadTable is a representative dead-declaration report table.
func deadTable() *Table {
	return NewTable(
		"Dead Declarations",
		[]string{"Location", "Symbol", "Kind", "Access"},
		[][]string{
			{"Sources/Login.swift:42", "LoginViewModel.retryCount", "variable", "private"},
			{"Sources/Legacy.swift:7", "migrateV1Schema", "function", "internal"},
		},
		[]string{"", "2 dead", "", ""},
		nil,
	)
}

// metricsSection mirrors the graph command's metrics summary.
func metricsSection() *Section {
	return &Section{
		Title:   "Graph Metrics",
		Content: "128 symbols, 301 edges",
		Sections: []Section{
			{Title: "Hub Symbols", Content: "AppCoordinator.start() 0.0412"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"text":     FormatText,
		"json":     FormatJSON,
		"JSON":     FormatJSON,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"":         FormatText,
		"bogus":    FormatText,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFormatterDefaultsToStdout(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	defer f.Close()

	if f.Writer() != os.Stdout {
		t.Error("empty output path must write to stdout")
	}
	if !f.Colored() {
		t.Error("color should stay enabled on stdout")
	}
	if f.Format() != FormatText {
		t.Errorf("Format() = %v, want text", f.Format())
	}
}

func TestNewFormatterFileDisablesColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	f, err := NewFormatter(FormatText, path, true)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}

	if f.Colored() {
		t.Error("file output must disable color")
	}
	f.Success("No dead declarations found")
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "No dead declarations found") {
		t.Errorf("file content = %q", content)
	}
	if strings.Contains(string(content), "\x1b[") {
		t.Error("file output must not contain ANSI escapes")
	}
}

func TestNewFormatterUnwritablePath(t *testing.T) {
	if _, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "no", "such", "dir.txt"), false); err == nil {
		t.Error("expected error for unwritable output path")
	}
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := deadTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Dead Declarations") {
		t.Error("missing title")
	}
	if !strings.Contains(out, strings.Repeat("=", len("Dead Declarations"))) {
		t.Error("missing title underline")
	}
	for _, cell := range []string{"Sources/Login.swift:42", "LoginViewModel.retryCount", "migrateV1Schema", "2 dead"} {
		if !strings.Contains(out, cell) {
			t.Errorf("output missing %q:\n%s", cell, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := deadTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "## Dead Declarations") {
		t.Error("markdown title must be a level-2 heading")
	}
	if !strings.Contains(out, "| Location | Symbol | Kind | Access |") {
		t.Errorf("missing header row:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- | --- | --- |") {
		t.Error("missing separator row")
	}
	if !strings.Contains(out, "| Sources/Legacy.swift:7 | migrateV1Schema | function | internal |") {
		t.Error("missing data row")
	}
	if !strings.Contains(out, "|  | 2 dead |  |  |") {
		t.Error("missing footer row")
	}
}

func TestTableRenderDataDerivedFromRows(t *testing.T) {
	data := deadTable().RenderData()
	rows, ok := data.([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() = %T, want []map[string]string", data)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["Symbol"] != "LoginViewModel.retryCount" {
		t.Errorf("row 0 Symbol = %q", rows[0]["Symbol"])
	}
	if rows[1]["Access"] != "internal" {
		t.Errorf("row 1 Access = %q", rows[1]["Access"])
	}
}

func TestTableRenderDataPrefersStructured(t *testing.T) {
	type finding struct {
		Symbol string `json:"symbol"`
		Line   int    `json:"line"`
	}
	structured := []finding{{Symbol: "migrateV1Schema", Line: 7}}
	tbl := NewTable("Dead Declarations", []string{"Symbol"}, [][]string{{"migrateV1Schema"}}, nil, structured)

	data, ok := tbl.RenderData().([]finding)
	if !ok {
		t.Fatalf("RenderData() = %T, want the structured findings", tbl.RenderData())
	}
	if data[0].Line != 7 {
		t.Errorf("Line = %d, want 7", data[0].Line)
	}
}

func TestSectionRenderTextNesting(t *testing.T) {
	var buf bytes.Buffer
	if err := metricsSection().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Graph Metrics\n"+strings.Repeat("=", len("Graph Metrics"))) {
		t.Error("top-level section underlined with =")
	}
	if !strings.Contains(out, "Hub Symbols\n"+strings.Repeat("-", len("Hub Symbols"))) {
		t.Error("nested section underlined with -")
	}
	if !strings.Contains(out, "128 symbols, 301 edges") {
		t.Error("missing content line")
	}
}

func TestSectionRenderMarkdownLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := metricsSection().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "## Graph Metrics") {
		t.Error("top section renders at level 2")
	}
	if !strings.Contains(out, "### Hub Symbols") {
		t.Error("nested section renders one level deeper")
	}
}

func TestReportRenderText(t *testing.T) {
	report := &Report{
		Title:    "strictswift deadcode",
		Sections: []Renderable{deadTable(), metricsSection()},
	}

	var buf bytes.Buffer
	if err := report.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"strictswift deadcode", "Dead Declarations", "Graph Metrics"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q", want)
		}
	}
}

func TestReportRenderMarkdown(t *testing.T) {
	report := &Report{
		Title:    "strictswift deadcode",
		Sections: []Renderable{deadTable()},
	}

	var buf bytes.Buffer
	if err := report.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "# strictswift deadcode") {
		t.Error("report title renders as a level-1 heading")
	}
	if !strings.Contains(out, "## Dead Declarations") {
		t.Error("table heading nests under the report")
	}
}

func TestReportRenderData(t *testing.T) {
	report := &Report{
		Title:    "strictswift deadcode",
		Sections: []Renderable{deadTable()},
	}

	data, ok := report.RenderData().(map[string]any)
	if !ok {
		t.Fatalf("RenderData() = %T, want map", report.RenderData())
	}
	if data["title"] != "strictswift deadcode" {
		t.Errorf("title = %v", data["title"])
	}
	sections, ok := data["sections"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("sections = %v", data["sections"])
	}
}

func TestFormatterJSONUsesRenderData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	f, err := NewFormatter(FormatJSON, path, false)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}

	if err := f.Output(deadTable()); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(content, &rows); err != nil {
		t.Fatalf("invalid JSON %q: %v", content, err)
	}
	if len(rows) != 2 || rows[0]["Kind"] != "variable" {
		t.Errorf("decoded rows = %v", rows)
	}
}

func TestFormatterMarkdownFallbackFencesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	f, err := NewFormatter(FormatMarkdown, path, false)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}

	// Plain data has no markdown renderer; it ships as a fenced JSON block.
	if err := f.Output(map[string]int{"dead": 2}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(content)
	if !strings.Contains(out, "```json") || !strings.Contains(out, "\"dead\": 2") {
		t.Errorf("markdown fallback = %q", out)
	}
}

func TestMessageHelpersPlainOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	f, err := NewFormatter(FormatText, path, true)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}

	f.Success("analysis complete")
	f.Warning("%d unresolved references", 3)
	f.Error("parse failed for %s", "Broken.swift")
	f.Info("using cached result")
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(content)
	for _, want := range []string{
		"analysis complete\n",
		"WARNING: 3 unresolved references\n",
		"ERROR: parse failed for Broken.swift\n",
		"using cached result\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestSeverityColorPassthrough(t *testing.T) {
	// Unknown severities come back untouched; known ones keep their text.
	if got := SeverityColor("none", "3 findings"); got != "3 findings" {
		t.Errorf("SeverityColor(none) = %q", got)
	}
	for _, sev := range []string{"critical", "medium", "low"} {
		if got := SeverityColor(sev, "dead"); !strings.Contains(got, "dead") {
			t.Errorf("SeverityColor(%s) lost its text: %q", sev, got)
		}
	}
}
