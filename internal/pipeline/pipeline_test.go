package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/rs/zerolog"
)

type stubLister struct {
	inbox   []models.RawMessage
	sent    []models.RawMessage
	sentErr error
}

func (s *stubLister) List(ctx context.Context, f smsdb.Filter) ([]models.RawMessage, error) {
	if f.Box == models.BoxSent {
		return s.sent, s.sentErr
	}
	return s.inbox, nil
}

func TestLoadMergesBoxes(t *testing.T) {
	src := &stubLister{
		inbox: []models.RawMessage{
			{ID: "1", Address: "0612345678", Body: "salut", Date: 1000, Box: models.BoxInbox},
		},
		sent: []models.RawMessage{
			{ID: "2", Address: "+33612345678", Body: "re", Date: 2000, Box: models.BoxSent},
		},
	}

	convs, err := Load(context.Background(), src, Options{Country: "FR"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected both boxes merged into one conversation, got %d", len(convs))
	}
	if convs[0].ID != "+33612345678" {
		t.Errorf("conversation id = %q", convs[0].ID)
	}
	if len(convs[0].Messages) != 2 {
		t.Errorf("message count = %d", len(convs[0].Messages))
	}
}

func TestLoadBoxFailureIsFatal(t *testing.T) {
	src := &stubLister{sentErr: errors.New("disk gone")}
	if _, err := Load(context.Background(), src, Options{Country: "FR"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error when a box read fails")
	}
}

func TestLoadResolvesContactNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.json")
	data := `[{"phoneNumbers":[{"number":"06 12 34 56 78"}],"displayName":"Marie Dupont"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	src := &stubLister{
		inbox: []models.RawMessage{
			{ID: "1", Address: "+33612345678", Body: "salut", Date: 1000, Box: models.BoxInbox},
		},
	}

	convs, err := Load(context.Background(), src, Options{Country: "FR", ContactsPath: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(convs) != 1 || convs[0].Name != "Marie Dupont" {
		t.Fatalf("expected resolved name, got %+v", convs[0])
	}
}

func TestLoadMissingContactsFileIsBestEffort(t *testing.T) {
	src := &stubLister{
		inbox: []models.RawMessage{
			{ID: "1", Address: "+33612345678", Body: "salut", Date: 1000, Box: models.BoxInbox},
		},
	}

	convs, err := Load(context.Background(), src, Options{Country: "FR", ContactsPath: "/nonexistent/contacts.json"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load should tolerate a missing contacts file: %v", err)
	}
	if len(convs) != 1 || convs[0].Name != "" {
		t.Fatalf("expected unresolved conversation, got %+v", convs[0])
	}
}
