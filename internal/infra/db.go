// README: Postgres connection pool initialization and startup migrations.
package infra

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
)

func NewDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}

// Migrate applies pending migrations from dir against the database at dsn.
// A missing migrations directory is logged, not fatal, so tests and dev
// setups that create the schema themselves keep working.
func Migrate(dsn, dir string, log logger.ILogger) error {
	cwd, _ := os.Getwd()
	path := dir
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, dir)
	}

	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		log.Warning("migration init error or no migrations found", logger.Error(err))
		return nil
	}
	if err := m.Up(); err != nil {
		if strings.Contains(err.Error(), "no change") {
			log.Info("no migrations to apply")
			return nil
		}
		return err
	}
	log.Info("migrations applied")
	return nil
}
