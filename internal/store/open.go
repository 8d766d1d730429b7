package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cartscope/advisor-cli/internal/config"
)

// Open creates a migrated Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var st Store
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "advisor.db"
		}
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
