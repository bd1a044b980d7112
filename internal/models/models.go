package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message direction, normalized from the telephony box/type columns.
const (
	TypeReceived = "received"
	TypeSent     = "sent"
)

// Box names understood by the SMS source.
const (
	BoxInbox = "inbox"
	BoxSent  = "sent"
)

// RawMessage is one row from the SMS store, before aggregation.
// Transient: consumed immediately by the aggregator.
type RawMessage struct {
	ID      string `json:"_id"`
	Address string `json:"address"`
	Body    string `json:"body"`
	Date    int64  `json:"date"` // ms since epoch; 0 means unknown
	Box     string `json:"box"`  // "inbox" or "sent"
}

// RawMmsPart is one media attachment of an MMS row.
type RawMmsPart struct {
	PartID   string `json:"partId"`
	MimeType string `json:"mimeType"`
	URI      string `json:"uri"`
	Data     string `json:"data,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// RawMmsItem is one MMS row with its media parts. Timestamp unit is
// inconsistent at the source (seconds or ms); the enricher corrects it.
type RawMmsItem struct {
	MmsID     string       `json:"mmsId"`
	Timestamp int64        `json:"timestamp"`
	Direction string       `json:"direction"` // "sent" or "received"
	Parts     []RawMmsPart `json:"parts"`
}

// RawContact is one entry from the contacts source.
type RawContact struct {
	DisplayName  string         `json:"displayName"`
	GivenName    string         `json:"givenName"`
	FamilyName   string         `json:"familyName"`
	PhoneNumbers []ContactPhone `json:"phoneNumbers"`
}

// ContactPhone is a single phone number of a contact.
type ContactPhone struct {
	Number string `json:"number"`
}

// Name returns the best available display name for the contact.
func (c *RawContact) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	var parts []string
	if c.GivenName != "" {
		parts = append(parts, c.GivenName)
	}
	if c.FamilyName != "" {
		parts = append(parts, c.FamilyName)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// MediaPart is a classified media attachment. URL, FirebasePath and
// Error are filled in during upload.
type MediaPart struct {
	Type         string `json:"type"` // "image" or "audio"
	MimeType     string `json:"mimeType"`
	URI          string `json:"uri"`
	Size         int64  `json:"size,omitempty"`
	URL          string `json:"url,omitempty"`
	FirebasePath string `json:"firebasePath,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Message is the canonical post-aggregation message. ID is the
// deduplication key and is unique within a conversation.
type Message struct {
	ID    string       `json:"id"`
	Body  string       `json:"body"`
	Date  int64        `json:"date"` // ms since epoch; 0 means unknown
	Type  string       `json:"type"` // "received" or "sent"
	IsMMS bool         `json:"isMms,omitempty"`
	Parts []*MediaPart `json:"parts,omitempty"`
}

// Conversation groups every message exchanged with one normalized
// phone-number key. Messages are kept sorted ascending by date with
// received-before-sent tie-breaking.
type Conversation struct {
	ID       string     `json:"id"`      // normalized phone key
	Address  string     `json:"address"` // first-seen original display form
	Name     string     `json:"name,omitempty"`
	Messages []*Message `json:"messages"`
	LastBody string     `json:"lastMessage"`
	LastDate int64      `json:"lastDate"`
}

// DisplayName returns the resolved contact name, falling back to the
// original address.
func (c *Conversation) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Address
}

// DateRangeLabel describes the span of the conversation's messages,
// e.g. "Jan 2024 – Oct 2024", collapsing to one month when they match.
func (c *Conversation) DateRangeLabel() string {
	if len(c.Messages) == 0 {
		return ""
	}
	first := time.UnixMilli(c.Messages[0].Date).Format("Jan 2006")
	last := time.UnixMilli(c.Messages[len(c.Messages)-1].Date).Format("Jan 2006")
	if first == last {
		return first
	}
	return first + " – " + last
}

// ExportOptions controls which message content is included in an export.
type ExportOptions struct {
	IncludeText   bool `json:"includeText"`
	IncludeImages bool `json:"includeImages"`
	IncludeAudio  bool `json:"includeAudio"`
}

// ExportedMessage is the denormalized wire form consumed by the web
// importer. Sender and conversation name are snapshots, not references.
type ExportedMessage struct {
	ID               string       `json:"id"`
	Body             string       `json:"body"`
	Content          string       `json:"content"` // the web app reads 'content'
	Text             string       `json:"text"`    // fallback key
	Timestamp        int64        `json:"timestamp"`
	Sender           string       `json:"sender"`
	Type             string       `json:"type"`
	ConversationName string       `json:"conversationName"`
	ConversationID   string       `json:"conversationId"`
	Media            []*MediaPart `json:"media,omitempty"`
}

// ExportMetadata summarizes an export payload.
type ExportMetadata struct {
	ExportDate        string        `json:"exportDate"`
	MessageCount      int           `json:"messageCount"`
	MediaCount        int           `json:"mediaCount"`
	ConversationCount int           `json:"conversationCount"`
	ConversationNames string        `json:"conversationNames"`
	DateFrom          string        `json:"dateFrom"`
	DateTo            string        `json:"dateTo"`
	Options           ExportOptions `json:"options"`
}

// ExportPayload is the JSON document written to the remote store under
// the export code.
type ExportPayload struct {
	Messages []*ExportedMessage `json:"messages"`
	Platform string             `json:"platform"`
	Metadata ExportMetadata     `json:"metadata"`
}

// DecodeRawMessages parses a JSON array of raw SMS records, coercing the
// telephony integer type column (1=inbox, 2=sent) when the box name is
// absent. Malformed input fails the whole batch; callers treat that as
// an empty result.
func DecodeRawMessages(data []byte) ([]RawMessage, error) {
	var rows []struct {
		RawMessage
		Type int `json:"type"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("malformed sms list: %w", err)
	}
	out := make([]RawMessage, 0, len(rows))
	for _, r := range rows {
		m := r.RawMessage
		if m.Box == "" {
			if r.Type == 1 {
				m.Box = BoxInbox
			} else {
				m.Box = BoxSent
			}
		}
		out = append(out, m)
	}
	return out, nil
}
