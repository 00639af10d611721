// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Field-level rules live in struct tags (see model.go).  Rules that span
// fields, such as “the block matching store.backend must be filled in”, are
// registered here as struct-level validators.
//
// Notes
// -----
//   • Two spaces after periods.
//   • Section dividers use the simple comment style.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(storeRules, Store{})
	val.RegisterStructValidation(feedRules, Feed{})
	return val
}

//
// struct-level rules
//

// storeRules requires the settings of the selected backend.
func storeRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(Store)
	switch s.Backend {
	case "firestore":
		if s.Firestore.ProjectID == "" {
			sl.ReportError(s.Firestore.ProjectID, "Firestore.ProjectID", "ProjectID", "required_for_backend", s.Backend)
		}
	case "dynamodb":
		if s.DynamoDB.Table == "" {
			sl.ReportError(s.DynamoDB.Table, "DynamoDB.Table", "Table", "required_for_backend", s.Backend)
		}
	case "mysql":
		if s.MySQL.DSN == "" {
			sl.ReportError(s.MySQL.DSN, "MySQL.DSN", "DSN", "required_for_backend", s.Backend)
		}
		if strings.Count(s.MySQL.DSN, "%s") > 1 {
			sl.ReportError(s.MySQL.DSN, "MySQL.DSN", "DSN", "single_password_verb", "")
		}
	}
}

// feedRules requires an address for the redis feed.
func feedRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(Feed)
	if f.Backend == "redis" && f.Redis.Addr == "" {
		sl.ReportError(f.Redis.Addr, "Redis.Addr", "Addr", "required_for_backend", f.Backend)
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
