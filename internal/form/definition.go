// internal/form/definition.go
//
// LeadFlow – Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file.  The file defines the form’s
//   identifier, title, and fields, including the validation metadata the
//   server enforces.  The intake form ships embedded in the binary
//   (defs/*.yaml) so a fresh deployment needs no files on disk; operators may
//   override it by pointing forms.dir at a directory of their own YAMLs.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef parses one document and validates structural rules.
//   •  RegisterDefaults loads the embedded definitions.  RegisterDir loads a
//      directory afterwards, so its files replace defaults with the same ID.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Comments follow the house guide: full sentences, two spaces after
//   periods, and clear roles.  Helper comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defs/*.yaml
var defaultDefs embed.FS

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// The form is uniquely identified by ID, namespaced by feature, e.g.
// “leads/intake”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Feature-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Submit string     `yaml:"submit"` // Submit button label, optional.
	Fields []FieldDef `yaml:"fields"` // Fields in render order.
}

// FieldDef describes a single input control on the form.  Validation metadata
// lives inline so the server can enforce the same rules the client hints at.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, textarea, email, select.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`    // True if input is mandatory.
	RequiredIf  string   `yaml:"required_if"` // “field=value”; mandatory when that field holds value.
	MinLength   int      `yaml:"minlength"`   // ≥ 0, 0 means unset.  Counted in runes.
	MaxLength   int      `yaml:"maxlength"`   // ≥ 0, 0 means unset.  Counted in runes.
	Pattern     string   `yaml:"pattern"`     // Regex pattern string.
	Options     []string `yaml:"options"`     // Closed set for select.  Matched case-insensitively.
	Suggestions []string `yaml:"suggestions"` // Open hints rendered as a <datalist>.
	Aliases     []string `yaml:"aliases"`     // Alternate submission keys.
	ErrorMsg    string   `yaml:"error"`       // Custom error message, optional.

	pattern *regexp.Regexp
	condKey string
	condVal string
}

// Field returns the named FieldDef, or nil.
func (fd *FormDef) Field(name string) *FieldDef {
	for i := range fd.Fields {
		if fd.Fields[i].Name == name {
			return &fd.Fields[i]
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps form ID → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the ID
// is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Register inserts or replaces fd in the registry.  Caller must ensure the
// FormDef came from ParseFormDef.
func Register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef parses one YAML document, validates its structure, and returns
// a populated FormDef.  It NEVER mutates the global registry.  src names the
// document in error messages.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// LoadFormDef reads and parses one YAML file.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// RegisterDefaults loads every embedded definition.
func RegisterDefaults() error {
	entries, err := defaultDefs.ReadDir("defs")
	if err != nil {
		return err
	}
	for _, e := range entries {
		raw, err := defaultDefs.ReadFile("defs/" + e.Name())
		if err != nil {
			return err
		}
		fd, err := ParseFormDef(raw, "embedded:"+e.Name())
		if err != nil {
			return err
		}
		Register(fd)
	}
	return nil
}

// RegisterDir walks dir and loads every “*.yaml”, replacing any registered
// form with the same ID.  A missing directory is not an error.
//
// Example:
//
//	if err := form.RegisterDir("/etc/leadflow/forms"); err != nil { … }
func RegisterDir(dir string) error {
	if dir == "" {
		return errors.New("RegisterDir: empty directory")
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil // skip non-YAML
		}
		fd, err := LoadFormDef(path)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		Register(fd)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var knownTypes = map[string]bool{
	"text":     true,
	"textarea": true,
	"email":    true,
	"select":   true,
}

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.  It returns a descriptive error referencing the offending source.
func validateFormDef(fd *FormDef, src string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", src)
	}

	keys := make(map[string]struct{})
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, src); err != nil {
			return err
		}
		for _, k := range append([]string{f.Name}, f.Aliases...) {
			if _, dup := keys[k]; dup {
				return fmt.Errorf("form %s: duplicate field key '%s'", src, k)
			}
			keys[k] = struct{}{}
		}
	}

	// required_if must point at a declared field.
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if f.condKey != "" && fd.Field(f.condKey) == nil {
			return fmt.Errorf("form %s: field '%s' required_if references unknown field '%s'", src, f.Name, f.condKey)
		}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane, and
// compiles the pattern and required_if condition.
func validateField(f *FieldDef, src string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", src)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", src, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type '%s'", src, f.Name, f.Type)
	}
	if f.Type == "select" && len(f.Options) == 0 {
		return fmt.Errorf("form %s: select field '%s' has no options", src, f.Name)
	}

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", src, f.Name, err)
		}
		f.pattern = re
	}

	if f.RequiredIf != "" {
		k, v, ok := strings.Cut(f.RequiredIf, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return fmt.Errorf("form %s: field '%s' required_if must be 'field=value'", src, f.Name)
		}
		if k == f.Name {
			return fmt.Errorf("form %s: field '%s' required_if references itself", src, f.Name)
		}
		f.condKey, f.condVal = k, v
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", src, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", src, f.Name)
	}
	return nil
}
