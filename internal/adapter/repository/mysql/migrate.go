package mysql

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// GooseDialect maps a DB_DRIVER value to the goose dialect name.
func GooseDialect(driver string) (string, error) {
	switch driver {
	case "mysql":
		return "mysql", nil
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported db driver %q", driver)
}

// RunMigrations applies the embedded schema migrations of driver. Each
// driver has its own directory since column types differ.
func RunMigrations(ctx context.Context, db *gorm.DB, driver string) error {
	dialect, err := GooseDialect(driver)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, path.Join("migrations", driver)); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
