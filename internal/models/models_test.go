package models

import (
	"testing"
)

func TestDecodeRawMessagesCoercesType(t *testing.T) {
	data := `[
		{"_id": "1", "address": "+33612345678", "body": "salut", "date": 1700000000000, "type": 1},
		{"_id": "2", "address": "+33612345678", "body": "re", "date": 1700000100000, "type": 2},
		{"_id": "3", "address": "+33612345678", "body": "named", "date": 1700000200000, "box": "inbox"}
	]`

	msgs, err := DecodeRawMessages([]byte(data))
	if err != nil {
		t.Fatalf("DecodeRawMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Box != BoxInbox {
		t.Errorf("type 1 should coerce to inbox, got %q", msgs[0].Box)
	}
	if msgs[1].Box != BoxSent {
		t.Errorf("type 2 should coerce to sent, got %q", msgs[1].Box)
	}
	if msgs[2].Box != BoxInbox {
		t.Errorf("explicit box name must pass through, got %q", msgs[2].Box)
	}
}

func TestDecodeRawMessagesRejectsMalformed(t *testing.T) {
	if _, err := DecodeRawMessages([]byte(`{"not": "an array"}`)); err == nil {
		t.Error("expected error for non-array input")
	}
	if _, err := DecodeRawMessages([]byte(`[{`)); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestContactName(t *testing.T) {
	tests := []struct {
		name    string
		contact RawContact
		want    string
	}{
		{"display name wins", RawContact{DisplayName: "Marie Dupont", GivenName: "Marie"}, "Marie Dupont"},
		{"given plus family", RawContact{GivenName: "Marie", FamilyName: "Dupont"}, "Marie Dupont"},
		{"given only", RawContact{GivenName: "Marie"}, "Marie"},
		{"family only", RawContact{FamilyName: "Dupont"}, "Dupont"},
		{"nothing", RawContact{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.contact.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversationDisplayName(t *testing.T) {
	c := &Conversation{Address: "0612345678"}
	if c.DisplayName() != "0612345678" {
		t.Errorf("unresolved conversation should show the address, got %q", c.DisplayName())
	}
	c.Name = "Marie"
	if c.DisplayName() != "Marie" {
		t.Errorf("resolved name should win, got %q", c.DisplayName())
	}
}

func TestConversationDateRangeLabel(t *testing.T) {
	// Mid-month timestamps keep the label stable across timezones.
	jan := int64(1705276800000) // 2024-01-15
	oct := int64(1728950400000) // 2024-10-15

	c := &Conversation{Messages: []*Message{
		{ID: "1", Date: jan},
		{ID: "2", Date: oct},
	}}
	if got := c.DateRangeLabel(); got != "Jan 2024 – Oct 2024" {
		t.Errorf("label = %q", got)
	}

	c.Messages = c.Messages[:1]
	if got := c.DateRangeLabel(); got != "Jan 2024" {
		t.Errorf("single-month label = %q", got)
	}

	c.Messages = nil
	if got := c.DateRangeLabel(); got != "" {
		t.Errorf("empty conversation label = %q", got)
	}
}
