// cmd/web/main.go
//
// LeadFlow – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Install a console logger so config errors are visible.
//
//  2. Connect to Vault when VAULT_ADDR is set; `vault:` config values are
//     resolved through it.
//
//  3. Load config (conf/.env → conf/global.yaml → LEADFLOW_* env).
//
//  4. Start the rotating file logger (tees to console when configured).
//
//  5. Open the document store, the live feed, and the GeoIP database.
//
//  6. Register form definitions and build the lead Registrar.
//
//  7. Build the chi router:
//
//     • ForceHTTPS             – 308 to https for non-local hosts
//     • RequestLogger          – request id + structured access log
//     • Security               – response headers
//     • requestinfo.Enrich     – UA, IP, GeoIP country
//     • /healthz, /metrics     – probes and Prometheus
//     • leads component        – page, API, live stream
//
//  8. Serve until SIGINT/SIGTERM, then drain for shutdownGrace.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/leadflow/internal/component"
	"github.com/yanizio/leadflow/internal/config"
	"github.com/yanizio/leadflow/internal/form"
	"github.com/yanizio/leadflow/internal/leads"
	"github.com/yanizio/leadflow/internal/logger"
	"github.com/yanizio/leadflow/internal/middleware"
	"github.com/yanizio/leadflow/internal/requestinfo"
	"github.com/yanizio/leadflow/internal/server"
	"github.com/yanizio/leadflow/internal/vault"
)

const shutdownGrace = 15 * time.Second

func main() {
	boot := logger.Bootstrap()
	if err := run(); err != nil {
		zap.S().Errorw("leadflow stopped", "err", err)
		_ = boot.Sync()
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets and config ──────────────────────────────────────────
	//
	var secrets config.SecretSource
	if vault.Configured() {
		vc, err := vault.New(ctx, zap.S())
		if err != nil {
			return err
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Tee: cfg.Log.Tee})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  Collaborators ───────────────────────────────────────────────
	//
	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	live, err := openFeed(ctx, cfg.Feed, log)
	if err != nil {
		return err
	}
	defer live.Close()

	var loc *requestinfo.Locator
	if cfg.GeoIP.DB != "" {
		if loc, err = requestinfo.OpenLocator(cfg.GeoIP.DB); err != nil {
			log.Warnw("geoip database unavailable; country lookups disabled", "db", cfg.GeoIP.DB, "err", err)
		} else {
			defer loc.Close()
		}
	}

	if err := form.RegisterDefaults(); err != nil {
		return err
	}
	if err := form.RegisterDir(cfg.Forms.Dir); err != nil {
		return err
	}

	reg, err := leads.NewRegistrar(leads.Options{
		Store:    store,
		Resolver: newResolver(cfg.Locale, log),
		Feed:     live,
	})
	if err != nil {
		return err
	}

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security(cfg.HTTP.ForceHTTPS))
	r.Use(requestinfo.Enrich(loc))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	err = component.Mount(r, log, leads.NewHandler(leads.HandlerOptions{
		Registrar: reg,
		Store:     store,
		Feed:      live,
		Guard:     form.NewGuard(form.DecodeKey(cfg.Forms.CSRFKey), cfg.Forms.MinFill),
		Root:      cfg.Paths.Root,
	}))
	if err != nil {
		return err
	}

	srv := server.New(cfg.HTTP, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r))

	//
	// ── 4.  Serve until signalled ───────────────────────────────────────
	//
	errc := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down", "grace", shutdownGrace)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}
