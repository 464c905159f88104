package migration

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"

	// versionLayout sorts lexically in apply order
	versionLayout = "20060102150405"
)

// ErrEmptyName is returned when a migration name has no usable characters
var ErrEmptyName = errors.New("migration name is empty")

// Tracker migrations target postgres. The repositories delete children
// themselves, so new tables need no ON DELETE clauses.
var (
	upTemplate = template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Timestamp}}
{{if .Description}}-- {{.Description}}
{{end}}
`))
	downTemplate = template.Must(template.New("down").Parse(`-- Rollback of {{.Name}}
-- Created: {{.Timestamp}}

`))
)

// MigrationFile describes a scaffolded up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration scaffolds an up/down pair in migrationsDir, versioned by
// the current UTC time
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	return createMigration(migrationsDir, name, description, time.Now().UTC())
}

func createMigration(dir, name, description string, now time.Time) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyName, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	version := now.Format(versionLayout)
	base := filepath.Join(dir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      base + upSuffix,
		DownPath:    base + downSuffix,
	}

	if err := writeNew(mf.UpPath, upTemplate, mf); err != nil {
		return nil, err
	}
	if err := writeNew(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

// writeNew renders tmpl into path, failing if path already exists
func writeNew(path string, tmpl *template.Template, mf *MigrationFile) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, mf); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// sanitizeName lowercases name and joins its words with underscores.
// Anything other than ASCII letters and digits is dropped.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
	}
	words = slices.DeleteFunc(words, func(w string) bool { return w == "" })
	return strings.Join(words, "_")
}

// ListMigrations returns the migration base names in a directory. A
// missing directory has none.
func ListMigrations(migrationsDir string) ([]string, error) {
	if _, err := os.Stat(migrationsDir); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	return ListMigrationsFS(os.DirFS(migrationsDir))
}

// ListMigrationsFS returns the sorted base names of the migrations at the
// root of fsys. Every up file needs its down file.
func ListMigrationsFS(fsys fs.FS) ([]string, error) {
	ups, err := fs.Glob(fsys, "*"+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	out := make([]string, 0, len(ups))
	for _, up := range ups {
		if info, err := fs.Stat(fsys, up); err != nil || info.IsDir() {
			continue
		}
		base := strings.TrimSuffix(up, upSuffix)
		if _, err := fs.Stat(fsys, base+downSuffix); err != nil {
			return nil, fmt.Errorf("migration %s has no %s file", base, downSuffix)
		}
		out = append(out, base)
	}
	slices.Sort(out)
	return out, nil
}
