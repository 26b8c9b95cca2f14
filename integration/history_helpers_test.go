package integration_test

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// loadRunCommands counts recorded runs per command and failure state.
func loadRunCommands(t *testing.T, dbPath string) map[string]int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open history db: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query("SELECT command, failed, COUNT(*) FROM runs GROUP BY command, failed")
	if err != nil {
		t.Fatalf("query runs: %v", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			command string
			failed  bool
			count   int
		)
		if err := rows.Scan(&command, &failed, &count); err != nil {
			t.Fatalf("scan run: %v", err)
		}
		if failed {
			command += ":failed"
		}
		counts[command] += count
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate runs: %v", err)
	}
	return counts
}

func requireRuns(t *testing.T, dbPath string, want map[string]int) {
	t.Helper()
	got := loadRunCommands(t, dbPath)
	for command, n := range want {
		if got[command] != n {
			t.Fatalf("history %s: want %d %q runs, got %d (all: %v)", dbPath, n, command, got[command], got)
		}
	}
}
