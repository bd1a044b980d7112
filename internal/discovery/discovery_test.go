package discovery

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestIsCandidateName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"mmssms.db", true},
		{"sms_backup.sqlite", true},
		{"messages-2024.sqlite3", true},
		{"MMSSMS.DB", true},
		{"contacts.db", false},
		{"mmssms.txt", false},
		{"notes.sqlite", false},
	}
	for _, tt := range tests {
		if got := isCandidateName(tt.name); got != tt.want {
			t.Errorf("isCandidateName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScanFindsValidBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mmssms.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	schema := `
		CREATE TABLE sms (_id INTEGER PRIMARY KEY, address TEXT, body TEXT, date INTEGER, type INTEGER);
		INSERT INTO sms (address, body, date, type) VALUES ('+33612345678', 'salut', 1700000000000, 1);
		INSERT INTO sms (address, body, date, type) VALUES ('+33612345678', 'ca va', 1700086400000, 2);
	`
	if _, err := conn.Exec(schema); err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}

	// Decoy that matches the name filter but has no telephony schema
	if err := os.WriteFile(filepath.Join(dir, "sms_notes.db"), []byte("not a database"), 0644); err != nil {
		t.Fatal(err)
	}

	scanner := &Scanner{}
	scanner.AddPath(dir)

	found, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(found))
	}

	var valid *BackupFile
	for _, f := range found {
		if f.IsValid {
			valid = f
		}
	}
	if valid == nil {
		t.Fatal("expected one valid backup")
	}
	if filepath.Base(valid.Path) != "mmssms.db" {
		t.Errorf("valid backup = %q", valid.Path)
	}
	if valid.Preview == nil || valid.Preview.MessageCount != 2 {
		t.Errorf("preview = %+v", valid.Preview)
	}
	if valid.Preview.DateRange == "" {
		t.Error("expected a date range in the preview")
	}
}
