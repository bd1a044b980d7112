package contacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/models"
)

func newTestResolver() *Resolver {
	return NewResolver("FR", zerolog.Nop())
}

func TestBuildMapLongestNameWins(t *testing.T) {
	a := models.RawContact{
		DisplayName:  "Bob",
		PhoneNumbers: []models.ContactPhone{{Number: "06 12 34 56 78"}},
	}
	b := models.RawContact{
		DisplayName:  "Bob Dupont",
		PhoneNumbers: []models.ContactPhone{{Number: "+33612345678"}},
	}

	// Resolution must not depend on input order.
	for _, order := range [][]models.RawContact{{a, b}, {b, a}} {
		m := newTestResolver().BuildMap(order)
		if got := m["+33612345678"]; got != "Bob Dupont" {
			t.Errorf("BuildMap order %v: got %q, want \"Bob Dupont\"", order, got)
		}
	}
}

func TestBuildMapEqualLengthFirstSeenWins(t *testing.T) {
	m := newTestResolver().BuildMap([]models.RawContact{
		{DisplayName: "Anna", PhoneNumbers: []models.ContactPhone{{Number: "0612345678"}}},
		{DisplayName: "Bert", PhoneNumbers: []models.ContactPhone{{Number: "+33612345678"}}},
	})
	if got := m["+33612345678"]; got != "Anna" {
		t.Errorf("got %q, want first-seen \"Anna\"", got)
	}
}

func TestBuildMapFallsBackToGivenFamilyName(t *testing.T) {
	m := newTestResolver().BuildMap([]models.RawContact{
		{GivenName: "Marie", FamilyName: "Curie", PhoneNumbers: []models.ContactPhone{{Number: "0687654321"}}},
	})
	if got := m["+33687654321"]; got != "Marie Curie" {
		t.Errorf("got %q, want \"Marie Curie\"", got)
	}
}

func TestBuildMapSkipsUnrecognizedNumbers(t *testing.T) {
	m := newTestResolver().BuildMap([]models.RawContact{
		{DisplayName: "Spam", PhoneNumbers: []models.ContactPhone{{Number: "38400"}}},
	})
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestResolveNames(t *testing.T) {
	convs := []*models.Conversation{
		{ID: "+33612345678", Address: "06 12 34 56 78"},
		{ID: "+33699999999", Address: "0699999999"},
		{ID: "CHATBOOK", Address: "CHATBOOK"},
	}
	m := map[string]string{"+33612345678": "Marie"}

	newTestResolver().ResolveNames(convs, m)

	if convs[0].Name != "Marie" {
		t.Errorf("conv 0 name = %q, want Marie", convs[0].Name)
	}
	if convs[1].Name != "" {
		t.Errorf("conv 1 name = %q, want empty", convs[1].Name)
	}
	if convs[2].DisplayName() != "CHATBOOK" {
		t.Errorf("conv 2 display = %q, want address fallback", convs[2].DisplayName())
	}
}

func TestResolveNamesViaAddressFallback(t *testing.T) {
	// Grouped under the fallback key, resolvable through the address.
	convs := []*models.Conversation{{ID: "0612345678", Address: "0612345678"}}
	newTestResolver().ResolveNames(convs, map[string]string{"+33612345678": "Marie"})
	if convs[0].Name != "Marie" {
		t.Errorf("name = %q, want Marie", convs[0].Name)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.json")
	content := `[{"displayName":"Marie","phoneNumbers":[{"number":"0612345678"}]}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	raw, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(raw) != 1 || raw[0].DisplayName != "Marie" {
		t.Errorf("unexpected contacts: %+v", raw)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}
