package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// SourceDir is where new migrations are written during development. The
// binary itself runs the copies embedded below.
const SourceDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Files returns the embedded migration set rooted at the migrations folder.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(fmt.Sprintf("migrations sub fs: %v", err))
	}
	return sub
}

// Migrator applies the storefront schema to a postgres database.
type Migrator struct {
	provider *goose.Provider
}

func New(db *sql.DB, files fs.FS) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if files == nil {
		files = Files()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

// Up applies every pending migration and returns the versions applied.
func (m *Migrator) Up(ctx context.Context) ([]int64, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	return appliedVersions(results), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) (int64, error) {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose down: %w", err)
	}
	if result == nil || result.Source == nil {
		return 0, nil
	}
	return result.Source.Version, nil
}

// To moves the schema up or down to the given YYYYMMDDHHMMSS version.
func (m *Migrator) To(ctx context.Context, version string) (int64, error) {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read db version: %w", err)
	}
	switch {
	case current < target:
		if _, err := m.provider.UpTo(ctx, target); err != nil {
			return current, fmt.Errorf("goose up-to %d: %w", target, err)
		}
	case current > target:
		if _, err := m.provider.DownTo(ctx, target); err != nil {
			return current, fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return target, nil
}

// Status is one line of the migration table.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	rows, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]Status, 0, len(rows))
	for _, r := range rows {
		if r.Source == nil {
			continue
		}
		out = append(out, Status{
			Version: r.Source.Version,
			Path:    r.Source.Path,
			Applied: r.State == goose.StateApplied,
		})
	}
	return out, nil
}

func appliedVersions(results []*goose.MigrationResult) []int64 {
	versions := make([]int64, 0, len(results))
	for _, r := range results {
		if r != nil && r.Source != nil {
			versions = append(versions, r.Source.Version)
		}
	}
	return versions
}
