package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chatbook/smsbridge/internal/models"
)

// Transcript formats supported by FormatTranscript.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

func formatStamp(ms int64) string {
	if ms == 0 {
		return "unknown time"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// FormatTranscript renders one conversation for local inspection,
// without going through the remote store.
func FormatTranscript(conv *models.Conversation, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal conversation: %w", err)
		}
		return string(data) + "\n", nil
	case FormatText:
		return formatTranscriptText(conv), nil
	case FormatMarkdown, "":
		return formatTranscriptMarkdown(conv), nil
	default:
		return "", fmt.Errorf("unknown transcript format %q", format)
	}
}

func senderLabel(conv *models.Conversation, msg *models.Message) string {
	if msg.Type == models.TypeSent {
		return SenderSelf
	}
	return conv.DisplayName()
}

func formatTranscriptMarkdown(conv *models.Conversation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.DisplayName()))
	sb.WriteString(fmt.Sprintf("**Number:** %s  \n", conv.Address))
	sb.WriteString(fmt.Sprintf("**Messages:** %d  \n\n", len(conv.Messages)))
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", senderLabel(conv, msg), formatStamp(msg.Date)))
		sb.WriteString(msg.Body)
		sb.WriteString("\n\n")
		for _, p := range msg.Parts {
			sb.WriteString(fmt.Sprintf("- %s attachment (%s)\n", p.Type, p.MimeType))
		}
		if len(msg.Parts) > 0 {
			sb.WriteString("\n")
		}
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return sb.String()
}

func formatTranscriptText(conv *models.Conversation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CONVERSATION: %s\n", conv.DisplayName()))
	sb.WriteString(fmt.Sprintf("Number: %s\n", conv.Address))
	sb.WriteString(fmt.Sprintf("Messages: %d\n", len(conv.Messages)))
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", formatStamp(msg.Date), senderLabel(conv, msg)))
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		sb.WriteString(msg.Body)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
