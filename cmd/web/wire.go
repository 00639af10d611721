// cmd/web/wire.go
//
// Backend selection.  Each helper turns one config section into a
// constructed collaborator; nothing here is a package-level singleton.

package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/leadflow/internal/config"
	"github.com/yanizio/leadflow/internal/database"
	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/feed"
	"github.com/yanizio/leadflow/internal/locale"
)

// openStore connects the configured document store.
func openStore(ctx context.Context, c config.Store, log *zap.SugaredLogger) (docstore.Store, error) {
	log.Infow("opening document store", "backend", c.Backend)

	switch c.Backend {
	case "memory":
		log.Warnw("memory store selected; leads are lost on restart")
		return docstore.NewMemory(), nil

	case "firestore":
		return docstore.NewFirestore(ctx, docstore.FirestoreOptions{
			ProjectID:       c.Firestore.ProjectID,
			DatabaseID:      c.Firestore.DatabaseID,
			CredentialsFile: c.Firestore.CredentialsFile,
		})

	case "dynamodb":
		return docstore.NewDynamo(ctx, docstore.DynamoOptions{
			Region:   c.DynamoDB.Region,
			Endpoint: c.DynamoDB.Endpoint,
			Table:    c.DynamoDB.Table,
			Index:    c.DynamoDB.Index,
		})

	case "mysql":
		dsn := c.MySQL.DSN
		if strings.Contains(dsn, "%s") {
			dsn = fmt.Sprintf(dsn, c.MySQL.Password)
		}
		db, err := database.OpenWithOptions(ctx, dsn, database.Pool{
			MaxOpen:     c.MySQL.MaxOpen,
			MaxIdle:     c.MySQL.MaxIdle,
			MaxLifetime: c.MySQL.MaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		s, err := docstore.NewMySQL(db, c.MySQL.Table)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if c.MySQL.Migrate {
			if err := s.Migrate(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// openFeed connects the live feed.
func openFeed(ctx context.Context, c config.Feed, log *zap.SugaredLogger) (feed.Feed, error) {
	if c.Backend == "redis" {
		log.Infow("live feed on redis", "addr", c.Redis.Addr, "channel", c.Redis.Channel)
		return feed.NewRedis(ctx, feed.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Channel:  c.Redis.Channel,
		}, log)
	}
	return feed.NewMemory(), nil
}

// newResolver builds the locale resolver, with the REST Countries lookup
// when enabled.
func newResolver(c config.Locale, log *zap.SugaredLogger) *locale.Resolver {
	opts := []locale.Option{locale.WithLogger(log)}
	if c.LookupEnabled {
		base := c.LookupURL
		if base == "" {
			base = locale.DefaultLookupBase
		}
		opts = append(opts, locale.WithLookup(locale.NewRESTCountries(base, c.LookupTimeout, log)))
	}
	return locale.New(opts...)
}
