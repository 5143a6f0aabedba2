package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mercapi/mercapi-backend/pkg/config"
)

// Tests run with the package directory as working directory, so the
// shipped migration sets are reachable under migrations/ directly.
func shippedDir(t *testing.T, driver string) string {
	t.Helper()
	return filepath.Join("migrations", strings.ToLower(driver))
}

func TestDirForIsPerDriver(t *testing.T) {
	if got := DirFor(config.DriverSQLite); got != filepath.Join(baseDir, "sqlite") {
		t.Fatalf("unexpected sqlite dir %q", got)
	}
	if got := DirFor(config.DriverPostgres); got != filepath.Join(baseDir, "postgres") {
		t.Fatalf("unexpected postgres dir %q", got)
	}
}

func TestShippedMigrationsValidatePerDialect(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverPostgres} {
		if err := ValidateDir(shippedDir(t, driver)); err != nil {
			t.Fatalf("%s migrations invalid: %v", driver, err)
		}
	}
}

func TestDialectDirsShipTheSameVersions(t *testing.T) {
	versions := func(driver string) []string {
		entries, err := os.ReadDir(shippedDir(t, driver))
		if err != nil {
			t.Fatalf("read %s migrations: %v", driver, err)
		}
		var names []string
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".sql") {
				names = append(names, e.Name())
			}
		}
		return names
	}

	sqlite := versions(config.DriverSQLite)
	postgres := versions(config.DriverPostgres)
	if len(sqlite) == 0 {
		t.Fatal("no sqlite migrations found")
	}
	if len(sqlite) != len(postgres) {
		t.Fatalf("dialect sets diverge: %d sqlite vs %d postgres", len(sqlite), len(postgres))
	}
	for i := range sqlite {
		if sqlite[i] != postgres[i] {
			t.Fatalf("dialect version mismatch: %q vs %q", sqlite[i], postgres[i])
		}
	}
}

func TestPostgresMigrationsUsePortableIdentity(t *testing.T) {
	dir := shippedDir(t, config.DriverPostgres)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read postgres migrations: %v", err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if strings.Contains(strings.ToUpper(string(b)), "AUTOINCREMENT") {
			t.Fatalf("%s uses sqlite-only AUTOINCREMENT", e.Name())
		}
	}
}
