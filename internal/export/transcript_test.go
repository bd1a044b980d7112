package export

import (
	"strings"
	"testing"

	"github.com/chatbook/smsbridge/internal/models"
)

func transcriptConversation() *models.Conversation {
	return &models.Conversation{
		ID:      "+33612345678",
		Address: "+33612345678",
		Name:    "Marie",
		Messages: []*models.Message{
			{ID: "1", Body: "salut", Date: 1_700_000_000_000, Type: models.TypeReceived},
			{ID: "2", Body: "re", Date: 1_700_000_100_000, Type: models.TypeSent},
		},
	}
}

func TestFormatTranscriptMarkdown(t *testing.T) {
	out, err := FormatTranscript(transcriptConversation(), FormatMarkdown)
	if err != nil {
		t.Fatalf("FormatTranscript failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Marie\n") {
		t.Errorf("missing title header:\n%s", out)
	}
	if !strings.Contains(out, "## Marie (") || !strings.Contains(out, "## "+SenderSelf+" (") {
		t.Errorf("missing sender headers:\n%s", out)
	}
}

func TestFormatTranscriptText(t *testing.T) {
	out, err := FormatTranscript(transcriptConversation(), FormatText)
	if err != nil {
		t.Fatalf("FormatTranscript failed: %v", err)
	}
	if !strings.Contains(out, "CONVERSATION: Marie") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "] "+SenderSelf+"\n") {
		t.Errorf("sent messages should carry the self label:\n%s", out)
	}
}

func TestFormatTranscriptUnknownFormat(t *testing.T) {
	if _, err := FormatTranscript(transcriptConversation(), "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
