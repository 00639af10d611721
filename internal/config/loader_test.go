// internal/config/loader_test.go
//
// Loader tests against a throw-away root directory.
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEADFLOW_ROOT", root)
	return root
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: ":8080"
store:
  backend: memory
`)
	t.Setenv("LEADFLOW_HTTP__LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("LEADFLOW_HTTP__READ_TIMEOUT", "3s")

	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("listen_addr = %q, want env override", cfg.HTTP.ListenAddr)
	}
	if cfg.HTTP.ReadTimeout != 3*time.Second {
		t.Errorf("read_timeout = %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Errorf("write_timeout default = %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.Feed.Backend != "memory" || cfg.Feed.Redis.Channel == "" {
		t.Errorf("feed defaults not applied: %+v", cfg.Feed)
	}
	if cfg.Log.Dir != filepath.Join(root, "logs") {
		t.Errorf("log dir = %q", cfg.Log.Dir)
	}
	if cfg.Paths.Root != root {
		t.Errorf("root = %q", cfg.Paths.Root)
	}
	if Get() != cfg {
		t.Error("Get should return the cached config")
	}
}

func TestLoad_ResolvesVaultReferences(t *testing.T) {
	writeRoot(t, `
http:
  listen_addr: ":8080"
store:
  backend: mysql
  mysql:
    dsn: "leadflow:%s@tcp(db:3306)/leadflow"
    password: "vault:secret/leadflow/mysql#password"
forms:
  csrf_key: "vault:secret/leadflow/forms#csrf"
`)
	src := fakeSecrets{
		"secret/leadflow/mysql#password": "hunter2",
		"secret/leadflow/forms#csrf":     "k3y",
	}

	cfg, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.MySQL.Password != "hunter2" || cfg.Forms.CSRFKey != "k3y" {
		t.Errorf("secrets not resolved: %+v %+v", cfg.Store.MySQL, cfg.Forms)
	}
}

func TestLoad_VaultWithoutClientFails(t *testing.T) {
	writeRoot(t, `
http:
  listen_addr: ":8080"
forms:
  csrf_key: "vault:secret/leadflow/forms#csrf"
`)
	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatal("expected error without a vault client")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing listen addr": "store: {backend: memory}",
		"unknown backend":     "http: {listen_addr: ':8080'}\nstore: {backend: postgres}",
		"firestore project":   "http: {listen_addr: ':8080'}\nstore: {backend: firestore}",
		"dynamo table":        "http: {listen_addr: ':8080'}\nstore: {backend: dynamodb}",
		"redis addr":          "http: {listen_addr: ':8080'}\nfeed: {backend: redis}",
		"bad log level":       "http: {listen_addr: ':8080'}\nlog: {level: loud}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, doc)
			if _, err := Load(context.Background(), nil); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
