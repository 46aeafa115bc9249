package repository

import (
	"strings"
	"testing"
)

func TestUpMigrations_Ordered(t *testing.T) {
	names, err := UpMigrations()
	if err != nil {
		t.Fatalf("UpMigrations: %v", err)
	}

	want := []string{"000001_entitlements.up.sql", "000002_strategy_history.up.sql"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	names, err := UpMigrations()
	if err != nil {
		t.Fatalf("UpMigrations: %v", err)
	}
	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, stmt := range strings.Split(string(body), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if !strings.Contains(stmt, "IF NOT EXISTS") {
				t.Errorf("%s: statement is not idempotent: %.60s", name, stmt)
			}
		}
	}
}
