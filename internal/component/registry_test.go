package component

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fake struct {
	name, path string
}

func (f fake) Name() string { return f.name }

func (f fake) Routes(r chi.Router) {
	r.Get(f.path, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(f.name))
	})
}

func TestMount(t *testing.T) {
	r := chi.NewRouter()
	if err := Mount(r, zap.NewNop().Sugar(), fake{"a", "/a"}, fake{"b", "/b"}); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	for _, name := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+name, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != name {
			t.Errorf("GET /%s = %d %q", name, rec.Code, rec.Body.String())
		}
	}
}

func TestMount_DuplicateName(t *testing.T) {
	err := Mount(chi.NewRouter(), nil, fake{"a", "/a"}, fake{"a", "/b"})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}
