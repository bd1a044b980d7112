package smsdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/chatbook/smsbridge/internal/models"
)

const fixtureSchema = `
CREATE TABLE sms (
	_id INTEGER PRIMARY KEY,
	address TEXT,
	body TEXT,
	date INTEGER,
	type INTEGER
);
CREATE TABLE pdu (
	_id INTEGER PRIMARY KEY,
	thread_id INTEGER,
	date INTEGER,
	msg_box INTEGER
);
CREATE TABLE part (
	_id INTEGER PRIMARY KEY,
	mid INTEGER,
	ct TEXT,
	_data TEXT
);
CREATE TABLE addr (
	msg_id INTEGER,
	address TEXT
);
`

func newFixture(t *testing.T) (string, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mmssms.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.Exec(fixtureSchema); err != nil {
		t.Fatal(err)
	}
	return path, conn
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListBoxes(t *testing.T) {
	path, conn := newFixture(t)
	seed := []struct {
		id      int
		address string
		body    string
		date    int64
		typ     int
	}{
		{1, "0612345678", "hi", 1000, 1},
		{2, "0612345678", "yo", 2000, 2},
		{3, "0687654321", "salut", 3000, 1},
	}
	for _, r := range seed {
		if _, err := conn.Exec("INSERT INTO sms VALUES (?,?,?,?,?)",
			r.id, r.address, r.body, r.date, r.typ); err != nil {
			t.Fatal(err)
		}
	}

	store := openStore(t, path)

	inbox, err := store.List(context.Background(), Filter{Box: models.BoxInbox, MaxCount: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(inbox) != 2 {
		t.Fatalf("inbox = %d rows, want 2", len(inbox))
	}
	// Newest first, box name attached, native ids kept.
	if inbox[0].ID != "3" || inbox[0].Box != models.BoxInbox || inbox[0].Date != 3000 {
		t.Errorf("inbox[0] = %+v", inbox[0])
	}

	sent, err := store.List(context.Background(), Filter{Box: models.BoxSent, MaxCount: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].Body != "yo" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestListRespectsWindow(t *testing.T) {
	path, conn := newFixture(t)
	for i := 1; i <= 5; i++ {
		if _, err := conn.Exec("INSERT INTO sms VALUES (?,?,?,?,?)",
			i, "0612345678", "m", int64(i*1000), 1); err != nil {
			t.Fatal(err)
		}
	}
	store := openStore(t, path)

	got, err := store.List(context.Background(), Filter{Box: models.BoxInbox, IndexFrom: 1, MaxCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "4" || got[1].ID != "3" {
		t.Errorf("windowed rows = %+v", got)
	}
}

func seedMms(t *testing.T, conn *sql.DB, mediaDir string) {
	t.Helper()
	jpg := filepath.Join(mediaDir, "part1.jpg")
	if err := os.WriteFile(jpg, []byte("jpeg-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	stmts := []struct {
		q    string
		args []interface{}
	}{
		// Received photo at t=1700000050 (seconds).
		{"INSERT INTO pdu VALUES (?,?,?,?)", []interface{}{10, 1, 1700000050, 1}},
		{"INSERT INTO addr VALUES (?,?)", []interface{}{10, "+33612345678"}},
		{"INSERT INTO part VALUES (?,?,?,?)", []interface{}{100, 10, "application/smil", "/app_parts/smil"}},
		{"INSERT INTO part VALUES (?,?,?,?)", []interface{}{101, 10, "image/jpeg", "/app_parts/part1.jpg"}},
		// Sent MMS with only a smil part: omitted from results.
		{"INSERT INTO pdu VALUES (?,?,?,?)", []interface{}{11, 1, 1700000060, 2}},
		{"INSERT INTO addr VALUES (?,?)", []interface{}{11, "+33612345678"}},
		{"INSERT INTO part VALUES (?,?,?,?)", []interface{}{110, 11, "application/smil", "/app_parts/smil2"}},
		// Different correspondent, must not match.
		{"INSERT INTO pdu VALUES (?,?,?,?)", []interface{}{12, 2, 1700000070, 1}},
		{"INSERT INTO addr VALUES (?,?)", []interface{}{12, "+33699999999"}},
		{"INSERT INTO part VALUES (?,?,?,?)", []interface{}{120, 12, "image/png", "/app_parts/other.png"}},
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s.q, s.args...); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMediaForAddress(t *testing.T) {
	path, conn := newFixture(t)
	mediaDir := t.TempDir()
	seedMms(t, conn, mediaDir)

	store := openStore(t, path)
	store.MediaRoot = mediaDir

	// The query window is in ms; pdu dates are seconds.
	items, err := store.MediaForAddress(context.Background(),
		"06 12 34 56 78", 1700000000000, 1700000100000)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v, want exactly the photo mms", items)
	}

	item := items[0]
	if item.MmsID != "10" || item.Direction != models.TypeReceived {
		t.Errorf("item = %+v", item)
	}
	if item.Timestamp != 1700000050 {
		t.Errorf("timestamp = %d, want raw seconds passed through", item.Timestamp)
	}
	if len(item.Parts) != 1 {
		t.Fatalf("parts = %+v, want smil filtered out", item.Parts)
	}
	part := item.Parts[0]
	if part.MimeType != "image/jpeg" {
		t.Errorf("part mime = %q", part.MimeType)
	}
	if part.URI != filepath.Join(mediaDir, "part1.jpg") {
		t.Errorf("part uri = %q, want remapped into media root", part.URI)
	}
	if part.Size != int64(len("jpeg-bytes")) {
		t.Errorf("part size = %d", part.Size)
	}
}

func TestMediaForAddressNoDigits(t *testing.T) {
	path, _ := newFixture(t)
	store := openStore(t, path)
	items, err := store.MediaForAddress(context.Background(), "CHATBOOK", 0, 2000000000000)
	if err != nil || items != nil {
		t.Errorf("items, err = %v, %v; want nil, nil", items, err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.db"), zerolog.Nop()); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestCopyPartToCache(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "voice.amr")
	if err := os.WriteFile(src, []byte("amr-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	cacheDir := filepath.Join(t.TempDir(), "cache")
	dest, size, err := CopyPartToCache(src, cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len("amr-bytes")) {
		t.Errorf("size = %d", size)
	}
	if filepath.Ext(dest) != ".amr" {
		t.Errorf("dest = %q, want extension preserved", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "amr-bytes" {
		t.Errorf("cached content = %q, %v", data, err)
	}

	if _, _, err := CopyPartToCache(filepath.Join(srcDir, "missing.bin"), cacheDir); err == nil {
		t.Error("expected error for missing source")
	}
}
