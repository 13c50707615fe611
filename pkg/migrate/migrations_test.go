package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rdelacruz/freshmarket-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestOrdersMigrationKeepsLegacyColumnNames(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		`"customerName" text NOT NULL`,
		`"totalAmount" numeric(12,2)`,
		`"preferredTime" text`,
		`status text NOT NULL DEFAULT 'new'`,
		"items jsonb NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_orders_status",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
