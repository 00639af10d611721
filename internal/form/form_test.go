// internal/form/form_test.go
//
// Unit-tests for definition loading, validation, CSRF, and rendering.
//
// Run: go test ./internal/form -v

package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func intake(t *testing.T) *FormDef {
	t.Helper()
	if err := RegisterDefaults(); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	fd, ok := GetFormDef("leads/intake")
	if !ok {
		t.Fatal("leads/intake not registered")
	}
	return fd
}

func validLead() url.Values {
	return url.Values{
		"name":     {" Jane Doe "},
		"email":    {"Jane@Example.COM"},
		"niche":    {"health"},
		"language": {"Portuguese"},
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func TestValidate_NormalizesValues(t *testing.T) {
	fd := intake(t)
	clean, errs := fd.Validate(validLead())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if clean["name"] != "Jane Doe" {
		t.Errorf("name = %q", clean["name"])
	}
	if clean["email"] != "jane@example.com" {
		t.Errorf("email = %q", clean["email"])
	}
	if clean["niche"] != "Health" {
		t.Errorf("niche = %q, want canonical option", clean["niche"])
	}
	if _, ok := clean["agentOrigin"]; ok {
		t.Error("absent optional field must be omitted")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	fd := intake(t)
	_, errs := fd.Validate(url.Values{
		"email": {"not-an-email"},
		"niche": {"Crypto"},
	})

	got := (&ValidationError{Fields: errs}).ByField()
	for _, name := range []string{"name", "email", "niche", "language"} {
		if len(got[name]) == 0 {
			t.Errorf("expected error for %s, got %v", name, got)
		}
	}
	if got["email"][0] != "Invalid email address." {
		t.Errorf("email message = %q", got["email"][0])
	}
}

func TestValidate_RequiredIf(t *testing.T) {
	fd := intake(t)

	v := validLead()
	v.Set("language", "Other")
	_, errs := fd.Validate(v)
	got := (&ValidationError{Fields: errs}).ByField()
	if len(got["otherLanguage"]) != 1 {
		t.Fatalf("expected otherLanguage error, got %v", got)
	}

	v.Set("otherLanguage", "Tagalog")
	clean, errs := fd.Validate(v)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if clean["otherLanguage"] != "Tagalog" {
		t.Errorf("otherLanguage = %q", clean["otherLanguage"])
	}
}

func TestValidate_AliasAndCaseInsensitiveOption(t *testing.T) {
	fd := intake(t)
	v := validLead()
	v.Set("agent", "love sales agent")

	clean, errs := fd.Validate(v)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if clean["agentOrigin"] != "Love Sales Agent" {
		t.Errorf("agentOrigin = %q", clean["agentOrigin"])
	}

	v.Set("agent", "Crypto Agent")
	_, errs = fd.Validate(v)
	if len(errs) != 1 || errs[0].Name != "agentOrigin" {
		t.Errorf("expected agentOrigin error, got %v", errs)
	}
}

func TestValidate_LengthInRunes(t *testing.T) {
	fd := intake(t)
	v := validLead()
	v.Set("name", strings.Repeat("é", 200))
	if _, errs := fd.Validate(v); len(errs) != 0 {
		t.Fatalf("200 runes should pass, got %v", errs)
	}
	v.Set("name", strings.Repeat("é", 201))
	if _, errs := fd.Validate(v); len(errs) != 1 {
		t.Fatalf("201 runes should fail, got %v", errs)
	}
}

// -----------------------------------------------------------------------------
// Definitions
// -----------------------------------------------------------------------------

func TestParseFormDef_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing id":        "fields: [{name: a, label: A, type: text}]",
		"no fields":         "id: x",
		"bad type":          "id: x\nfields: [{name: a, label: A, type: date}]",
		"select no options": "id: x\nfields: [{name: a, label: A, type: select}]",
		"bad required_if":   "id: x\nfields: [{name: a, label: A, type: text, required_if: b}]",
		"unknown cond":      "id: x\nfields: [{name: a, label: A, type: text, required_if: b=c}]",
		"dup alias":         "id: x\nfields: [{name: a, label: A, type: text}, {name: b, label: B, type: text, aliases: [a]}]",
		"bad pattern":       "id: x\nfields: [{name: a, label: A, type: text, pattern: '('}]",
	}
	for name, doc := range cases {
		if _, err := ParseFormDef([]byte(doc), name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRegisterDir_OverridesDefaults(t *testing.T) {
	intake(t)
	dir := t.TempDir()
	doc := "id: leads/intake\ntitle: Custom\nfields: [{name: name, label: Name, type: text, required: true}]\n"
	if err := os.WriteFile(filepath.Join(dir, "intake.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RegisterDir(dir); err != nil {
		t.Fatalf("RegisterDir: %v", err)
	}
	fd, _ := GetFormDef("leads/intake")
	if fd.Title != "Custom" {
		t.Errorf("title = %q, want override", fd.Title)
	}

	// Restore for other tests.
	if err := RegisterDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := RegisterDir(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("missing dir should be ignored, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// CSRF + timing
// -----------------------------------------------------------------------------

func testGuard(now time.Time) *Guard {
	g := NewGuard([]byte(strings.Repeat("k", 32)), 2*time.Second)
	g.now = func() time.Time { return now }
	return g
}

func TestGuard_TokenRoundTrip(t *testing.T) {
	now := time.Now()
	g := testGuard(now)

	tok, err := g.Token()
	if err != nil {
		t.Fatal(err)
	}
	if !g.Verify(tok) {
		t.Fatal("fresh token should verify")
	}

	other := NewGuard([]byte(strings.Repeat("x", 32)), 0)
	if other.Verify(tok) {
		t.Error("token must not verify under another key")
	}

	g.now = func() time.Time { return now.Add(3 * time.Hour) }
	if g.Verify(tok) {
		t.Error("expired token should fail")
	}
	if g.Verify("garbage") {
		t.Error("garbage should fail")
	}
}

func TestGuard_Check(t *testing.T) {
	now := time.Now()
	g := testGuard(now)
	tok, _ := g.Token()

	post := func(rendered time.Time) url.Values {
		return url.Values{
			FieldCSRF:     {tok},
			FieldRenderTS: {strconv.FormatInt(rendered.UnixMicro(), 10)},
		}
	}

	if msg := g.Check(post(now.Add(-10 * time.Second))); msg != "" {
		t.Errorf("expected pass, got %q", msg)
	}
	if msg := g.Check(post(now.Add(-500 * time.Millisecond))); !strings.Contains(msg, "too quickly") {
		t.Errorf("expected too-quick message, got %q", msg)
	}
	if msg := g.Check(post(now.Add(-time.Hour))); !strings.Contains(msg, "expired") {
		t.Errorf("expected expired message, got %q", msg)
	}
	if msg := g.Check(url.Values{}); !strings.Contains(msg, "Security token") {
		t.Errorf("expected token message, got %q", msg)
	}
}

// -----------------------------------------------------------------------------
// Rendering + Submit
// -----------------------------------------------------------------------------

func TestRender_IncludesPrefillErrorsAndTokens(t *testing.T) {
	fd := intake(t)
	g := testGuard(time.Now())

	out, err := Render(fd, g, RenderOptions{
		Prefill: map[string]string{"name": `<b>Jane</b>`, "niche": "wealth"},
		Errors:  map[string][]string{"email": {"Invalid email address."}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`name="csrf_token"`,
		`name="render_ts"`,
		`value="&lt;b&gt;Jane&lt;/b&gt;"`,
		`<option value="Wealth" selected>`,
		`Invalid email address.`,
		`<datalist id="lst-language">`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSubmit_JSONBody(t *testing.T) {
	fd := intake(t)
	body := `{"name":"Jane","email":"jane@x.com","niche":"Wealth","language":"es","age":41}`
	r := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	clean, _, err := Submit(fd, nil, httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if clean["language"] != "es" || clean["niche"] != "Wealth" {
		t.Errorf("unexpected clean values %v", clean)
	}
}

func TestSubmit_GuardFailureIsFormLevel(t *testing.T) {
	fd := intake(t)
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validLead().Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, posted, err := Submit(fd, testGuard(time.Now()), httptest.NewRecorder(), r)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ve := err.(*ValidationError)
	if len(ve.FormLevel()) != 1 || len(ve.ByField()) != 0 {
		t.Errorf("expected one form-level message, got %+v", ve.Fields)
	}
	if posted.Get("name") != " Jane Doe " {
		t.Error("posted values should be returned for re-render")
	}
}

func TestSubmit_RejectsNestedJSON(t *testing.T) {
	fd := intake(t)
	r := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"name":{"first":"Jane"}}`))
	r.Header.Set("Content-Type", "application/json")
	if _, _, err := Submit(fd, nil, httptest.NewRecorder(), r); err == nil || IsValidationError(err) {
		t.Fatalf("expected ErrBadBody, got %v", err)
	}
}
