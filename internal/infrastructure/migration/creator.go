package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FilePair describes a generated up/down migration pair.
type FilePair struct {
	Version     string
	Name        string
	Description string
	CreatedAt   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes a new up/down migration pair into migrationsDir,
// creating the directory if needed. The version prefix is the current
// timestamp so files sort in creation order.
func CreateMigration(migrationsDir, name, description string) (*FilePair, error) {
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now()
	mf := &FilePair{
		Version:     now.Format("20060102150405"),
		Name:        name,
		Description: description,
		CreatedAt:   now.Format(time.RFC3339),
	}

	base := mf.Version + "_" + sanitizeName(name)
	mf.UpPath = filepath.Join(migrationsDir, base+".up.sql")
	mf.DownPath = filepath.Join(migrationsDir, base+".down.sql")

	if err := os.WriteFile(mf.UpPath, []byte(stubContent(mf, false)), 0o644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}
	if err := os.WriteFile(mf.DownPath, []byte(stubContent(mf, true)), 0o644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}

	return mf, nil
}

// stubContent renders the placeholder body for one half of a migration pair.
func stubContent(mf *FilePair, rollback bool) string {
	title := mf.Name
	body := "-- Write the forward migration here.\n"
	if rollback {
		title += " (rollback)"
		body = "-- Write the rollback migration here.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Migration: %s\n", title)
	fmt.Fprintf(&b, "-- Created: %s\n", mf.CreatedAt)
	if mf.Description != "" {
		fmt.Fprintf(&b, "-- %s\n", mf.Description)
	}
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// sanitizeName lowercases a migration name and collapses runs of spaces,
// hyphens and underscores into single underscores so the result can
// participate in a file name. Other characters are dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the base names of every migration pair found in
// migrationsDir, sorted by version. A missing directory yields an empty
// list rather than an error.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".up.sql"))
	}
	sort.Strings(names)
	return names, nil
}
