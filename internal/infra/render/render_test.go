package render

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
	"github.com/ParadiseToken/solhydra/internal/domain/report"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

var png = "\x89PNG\r\n\x1a\n0000"

func model(t *testing.T) *report.Model {
	t.Helper()
	m := report.NewModel([]tools.Run{
		{Name: "solhint", ContentType: tools.ContentText, OutputRootExists: true},
		{Name: "mythril", ContentType: tools.ContentMarkdown, OutputRootExists: true},
		{Name: "solgraph", ContentType: tools.ContentImage, OutputRootExists: true},
	})
	tok, _ := contracts.NewIdentity("Token.sol")
	gov, _ := contracts.NewIdentity("Governance.Leader.LeaderGov.sol")
	if err := m.Add(report.Entry{
		Identity: tok,
		Variants: contracts.Variants{Original: optional.Some("contract Token {}"), Flattened: "contract Token {} // flat"},
		Outputs: map[string]tools.Output{
			"solhint":  {Tool: "solhint", ContentType: tools.ContentText, Content: "no <issues>"},
			"mythril":  {Tool: "mythril", ContentType: tools.ContentMarkdown, Content: "<h2>Issue</h2>"},
			"solgraph": {Tool: "solgraph", ContentType: tools.ContentImage, Content: png},
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(report.Entry{Identity: gov, Variants: contracts.Variants{Flattened: "contract LeaderGov {}"}}); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRender(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	err = r.Render(&buf, report.Document{
		RunID:       "20240101-000000-x",
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Model:       model(t),
		Summary:     optional.Some("<p>two contracts</p>"),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`id="token"`,
		`id="governance-leader-leadergov"`,
		`no &lt;issues&gt;`,
		`<h2>Issue</h2>`,
		`src="data:image/png;base64,`,
		`<p>two contracts</p>`,
		HighlightJS,
		`.tool img`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Index(out, `id="token"`) > strings.Index(out, `id="governance-leader-leadergov"`) {
		t.Error("contracts out of model order")
	}
	if strings.Count(out, "<summary>Combined</summary>") != 0 {
		t.Error("absent combined variant rendered")
	}
	if strings.Count(out, "<summary>Original</summary>") != 1 {
		t.Error("original variant should render once")
	}
}

func TestWriteFileCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "t.tmpl")
	if err := os.WriteFile(tmpl, []byte(`{{range .Model.Entries}}{{.Identity.Slug}};{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "out", "report.html")
	if err := r.WriteFile(dest, report.Document{Model: model(t)}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, _ := os.ReadFile(dest)
	if string(b) != "token;governance-leader-leadergov;" {
		t.Errorf("got %q", b)
	}
}

func TestRenderElementIDsUnique(t *testing.T) {
	m := report.NewModel([]tools.Run{{Name: "solhint", ContentType: tools.ContentText, OutputRootExists: true}})
	for _, name := range []string{"A.sol", "A.solhint.sol"} {
		id, err := contracts.NewIdentity(name)
		if err != nil {
			t.Fatal(err)
		}
		err = m.Add(report.Entry{Identity: id, Outputs: map[string]tools.Output{
			"solhint": {Tool: "solhint", ContentType: tools.ContentText, Content: "ok"},
		}})
		if err != nil {
			t.Fatal(err)
		}
	}
	r, _ := New("")
	var buf bytes.Buffer
	if err := r.Render(&buf, report.Document{Model: m}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	seen := map[string]bool{}
	for _, match := range regexp.MustCompile(`id="([^"]*)"`).FindAllStringSubmatch(buf.String(), -1) {
		if seen[match[1]] {
			t.Errorf("duplicate id %q", match[1])
		}
		seen[match[1]] = true
	}
	if !seen["a"] || !seen["a-solhint"] || !seen["a/solhint"] {
		t.Errorf("ids: %v", seen)
	}
}

func TestRenderNilModel(t *testing.T) {
	r, _ := New("")
	if err := r.Render(&bytes.Buffer{}, report.Document{}); err == nil {
		t.Fatal("expected error")
	}
}
