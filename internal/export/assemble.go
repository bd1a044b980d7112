// Package export builds the canonical export payload and uploads it to
// the remote store under an expiring 6-character code.
package export

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/selection"
)

// MaxAudioBytes is the hard limit on the cumulative size of audio parts
// in one export.
const MaxAudioBytes = 500 * 1024 * 1024

// Platform identifies this producer to the web importer.
const Platform = "mobile-sms"

// SenderSelf is the denormalized sender label for sent messages.
const SenderSelf = "Moi"

// Assembler filters selected conversations into an export payload.
type Assembler struct {
	MaxAudio int64 // 0 means MaxAudioBytes
	Log      zerolog.Logger
}

// NewAssembler creates an assembler with the default audio limit.
func NewAssembler(log zerolog.Logger) *Assembler {
	return &Assembler{MaxAudio: MaxAudioBytes, Log: log.With().Str("component", "assemble").Logger()}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// filterParts drops media excluded by the options. It returns nil when
// nothing remains, in which case the whole synthetic message is dropped.
func filterParts(parts []*models.MediaPart, opts models.ExportOptions) []*models.MediaPart {
	var kept []*models.MediaPart
	for _, p := range parts {
		switch p.Type {
		case "image":
			if opts.IncludeImages {
				kept = append(kept, p)
			}
		case "audio":
			if opts.IncludeAudio {
				kept = append(kept, p)
			}
		}
	}
	return kept
}

// Assemble builds the export payload from the selected conversations.
//
// Messages are kept when their date falls in [startOfDay(from),
// endOfDay(to)] and, if a per-message selection was recorded for the
// conversation, their id is part of it. MMS messages lose parts excluded
// by the options and disappear entirely when no part remains.
//
// Returned media parts are shared with the payload messages, so the
// uploader's url/error annotations are visible when the payload is
// serialized. Fails with ErrEmptySelection when nothing survives the
// filters, and with *AudioSizeError before any upload when the selected
// audio exceeds the limit.
func (a *Assembler) Assemble(convs []*models.Conversation, from, to time.Time, sel *selection.State, opts models.ExportOptions) (*models.ExportPayload, []*models.MediaPart, error) {
	fromMS := startOfDay(from).UnixMilli()
	toMS := endOfDay(to).UnixMilli()

	var (
		messages   []*models.ExportedMessage
		media      []*models.MediaPart
		names      []string
		audioTotal int64
		convCount  int
	)

	for _, conv := range convs {
		if sel != nil && !sel.IsConversationSelected(conv.ID) {
			continue
		}
		convCount++
		names = append(names, conv.DisplayName())
		restrict := sel != nil && sel.HasMessageSelection(conv.ID)

		for _, msg := range conv.Messages {
			if msg.Date < fromMS || msg.Date > toMS {
				continue
			}
			if restrict && !sel.IsMessageSelected(conv.ID, msg.ID) {
				continue
			}

			var parts []*models.MediaPart
			if msg.IsMMS {
				parts = filterParts(msg.Parts, opts)
				if len(parts) == 0 {
					continue
				}
				for _, p := range parts {
					if p.Type == "audio" {
						audioTotal += p.Size
					}
					media = append(media, p)
				}
			} else if !opts.IncludeText {
				continue
			}

			sender := SenderSelf
			if msg.Type == models.TypeReceived {
				sender = conv.DisplayName()
			}
			kind := "text"
			if msg.IsMMS {
				kind = "media"
			}
			messages = append(messages, &models.ExportedMessage{
				ID:               msg.ID,
				Body:             msg.Body,
				Content:          msg.Body,
				Text:             msg.Body,
				Timestamp:        msg.Date,
				Sender:           sender,
				Type:             kind,
				ConversationName: conv.DisplayName(),
				ConversationID:   conv.ID,
				Media:            parts,
			})
		}
	}

	if len(messages) == 0 {
		return nil, nil, ErrEmptySelection
	}

	limit := a.MaxAudio
	if limit == 0 {
		limit = MaxAudioBytes
	}
	if opts.IncludeAudio && audioTotal > limit {
		return nil, nil, &AudioSizeError{Total: audioTotal, Limit: limit}
	}

	payload := &models.ExportPayload{
		Messages: messages,
		Platform: Platform,
		Metadata: models.ExportMetadata{
			ExportDate:        time.Now().UTC().Format(time.RFC3339),
			MessageCount:      len(messages),
			MediaCount:        len(media),
			ConversationCount: convCount,
			ConversationNames: strings.Join(names, ", "),
			DateFrom:          startOfDay(from).Format(time.RFC3339),
			DateTo:            endOfDay(to).Format(time.RFC3339),
			Options:           opts,
		},
	}

	a.Log.Info().
		Int("messages", len(messages)).
		Int("media", len(media)).
		Int("conversations", convCount).
		Int64("audioBytes", audioTotal).
		Msg("payload assembled")
	return payload, media, nil
}

