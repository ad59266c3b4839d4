package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrate brings the schema up to date. Migrations are embedded so the binary
// carries its own schema.
func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(s.dialect.goose(), s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("Migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
