package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

const fileTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// Create writes an empty goose migration named <version>_<slug>.sql into
// dir and returns its path.
func Create(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.UTC().Format(versionLayout), slug))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	_, werr := fmt.Fprintf(f, fileTemplate, slug)
	if err := multierr.Append(werr, f.Close()); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Validate checks every .sql file in files for a well-formed name, a unique
// version and both goose sections. All problems are reported together.
func Validate(files fs.FS) error {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	var errs error
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if other, dup := versions[m[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], other))
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(files, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for _, section := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), section) {
				errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, section))
			}
		}
	}
	return errs
}
