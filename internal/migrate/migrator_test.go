package migrate

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestVersion(t *testing.T) {
	if got := Version("000002_locks.up.sql"); got != "000002" {
		t.Errorf("Version = %q", got)
	}
	if got := Version("init.sql"); got != "init.sql" {
		t.Errorf("Version without prefix = %q", got)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ListFiles(dir, ".up.sql")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"000001_a.up.sql", "000002_b.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListFiles = %v, want %v", got, want)
	}
}

func TestSchemaMigrationsShipped(t *testing.T) {
	files, err := ListFiles(filepath.Join("..", "..", "migrations"), ".up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no up migrations found")
	}
	for _, f := range files {
		down := filepath.Join("..", "..", "migrations", f[:len(f)-len(".up.sql")]+".down.sql")
		if _, err := os.Stat(down); err != nil {
			t.Errorf("%s has no down migration", f)
		}
	}
}
