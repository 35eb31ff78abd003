package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write migration %s: %v", name, err)
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "010_badges.sql", "CREATE TABLE badges (id TEXT);")
	writeMigration(t, dir, "001_catalog.sql", "CREATE TABLE products (id TEXT);")
	writeMigration(t, dir, "002_courses.sql", "CREATE TABLE courses (id TEXT);")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	wantOrder := []int{1, 2, 10}
	for i, want := range wantOrder {
		if migrations[i].Version != want {
			t.Errorf("migration %d: version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Name != "001_catalog.sql" {
		t.Errorf("first migration name = %s, want 001_catalog.sql", migrations[0].Name)
	}
}

func TestLoadMigrations_SkipsNonNumericAndNonSQL(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_catalog.sql", "CREATE TABLE products (id TEXT);")
	writeMigration(t, dir, "README.md", "not a migration")
	writeMigration(t, dir, "notes_002.sql", "SELECT 1;")
	writeMigration(t, dir, "seed.sql", "SELECT 1;")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
	if migrations[0].Version != 1 {
		t.Errorf("version = %d, want 1", migrations[0].Version)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "nope"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing migrations directory")
	}
}
