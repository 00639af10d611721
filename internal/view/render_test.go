package view

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/yanizio/leadflow/internal/requestinfo"
)

var embedded = fstest.MapFS{
	"page.html": {Data: []byte(`{{ define "row" }}<li>{{ .k }}</li>{{ end }}<ul>{{ template "row" (dict "k" .Name) }}</ul><p>{{ browser .Info }}|{{ join .Tags "," }}</p>`)},
	"root.html": {Data: []byte(`{{ define "root" }}defined {{ . }}{{ end }}`)},
}

func TestRender_EmbeddedWithHelpers(t *testing.T) {
	e := New("demo", "", embedded)
	rec := httptest.NewRecorder()

	err := e.Render(rec, 201, "page", map[string]any{
		"Name": "<Jane>",
		"Info": &requestinfo.RequestInfo{UA: requestinfo.UA{Browser: "Firefox"}},
		"Tags": []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rec.Code != 201 {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<li>&lt;Jane&gt;</li>", "<p>Firefox|a,b</p>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}

func TestRender_NilRequestInfo(t *testing.T) {
	e := New("demo", "", embedded)
	out, err := e.RenderToString("page", map[string]any{"Name": "x", "Info": (*requestinfo.RequestInfo)(nil), "Tags": []string{}})
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if !strings.Contains(string(out), "<p>|</p>") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_OverrideWins(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "templates", "demo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(`override {{ .Name }}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := New("demo", root, embedded).RenderToString("page", map[string]any{"Name": "x"})
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if string(out) != "override x" {
		t.Errorf("got %q", out)
	}
}

func TestRender_DefineFallbackAndMissing(t *testing.T) {
	e := New("demo", "", embedded)

	out, err := e.RenderToString("root", "ok")
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if !strings.Contains(string(out), "defined ok") {
		t.Errorf("got %q", out)
	}

	if _, err := e.RenderToString("nope", nil); err == nil {
		t.Error("expected error for a missing template")
	}
}
