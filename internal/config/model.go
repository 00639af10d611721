// internal/config/model.go
//
// Typed configuration model for LeadFlow.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `LEADFLOW_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Durations accept Go syntax (“10s”, “1m30s”).
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Log section
//

// Log controls the zap/lumberjack sink.  Dir is relative to Paths.Root
// unless absolute.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
	Tee   bool   `koanf:"tee"`
}

//
// Store section
//

// Store selects and configures the document store backend.  Only the block
// matching Backend is read.
type Store struct {
	Backend   string    `koanf:"backend" validate:"required,oneof=memory firestore dynamodb mysql"`
	Firestore Firestore `koanf:"firestore"`
	DynamoDB  DynamoDB  `koanf:"dynamodb"`
	MySQL     MySQL     `koanf:"mysql"`
}

// Firestore holds Google Cloud settings.  CredentialsFile may be empty when
// Application Default Credentials are available.
type Firestore struct {
	ProjectID       string `koanf:"project_id"`
	DatabaseID      string `koanf:"database_id"`
	CredentialsFile string `koanf:"credentials_file"`
}

// DynamoDB holds AWS settings.  Endpoint is for DynamoDB Local.
type DynamoDB struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	Table    string `koanf:"table"`
	Index    string `koanf:"index"`
}

// MySQL holds the DSN template and secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  A single `%s` verb, when present, is
// replaced by `Password`, which normally comes from Vault.
type MySQL struct {
	DSN         string        `koanf:"dsn"`
	Password    string        `koanf:"password"`
	Table       string        `koanf:"table"`
	MaxOpen     int           `koanf:"max_open"     validate:"gte=0"`
	MaxIdle     int           `koanf:"max_idle"     validate:"gte=0"`
	MaxLifetime time.Duration `koanf:"max_lifetime" validate:"gte=0"`
	Migrate     bool          `koanf:"migrate"`
}

//
// Feed section
//

// Feed selects how new-lead events reach dashboard subscribers.
type Feed struct {
	Backend string `koanf:"backend" validate:"omitempty,oneof=memory redis"`
	Redis   Redis  `koanf:"redis"`
}

// Redis configures the pub/sub feed.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"      validate:"gte=0"`
	Channel  string `koanf:"channel"`
}

//
// Locale section
//

// Locale configures the optional external country lookup.
type Locale struct {
	LookupEnabled bool          `koanf:"lookup_enabled"`
	LookupURL     string        `koanf:"lookup_url"     validate:"omitempty,url"`
	LookupTimeout time.Duration `koanf:"lookup_timeout" validate:"gte=0"`
}

//
// Forms section
//

// Forms configures definitions and CSRF protection.
type Forms struct {
	Dir     string        `koanf:"dir"`
	CSRFKey string        `koanf:"csrf_key"`
	MinFill time.Duration `koanf:"min_fill" validate:"gte=0"`
}

//
// GeoIP section
//

// GeoIP points at a GeoLite2-Country or GeoLite2-City database.  Empty
// disables IP geolocation.
type GeoIP struct {
	DB string `koanf:"db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or LEADFLOW_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // LEADFLOW_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP   HTTP   `koanf:"http"`
	Log    Log    `koanf:"log"`
	Store  Store  `koanf:"store"`
	Feed   Feed   `koanf:"feed"`
	Locale Locale `koanf:"locale"`
	Forms  Forms  `koanf:"forms"`
	GeoIP  GeoIP  `koanf:"geoip"`
	Paths  Paths  `koanf:"-"` // not loaded from config files
}
