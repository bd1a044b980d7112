// Package mms augments SMS-only conversations with MMS-derived
// messages. Enrichment is best-effort: a failing source leaves the
// conversation untouched.
package mms

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/aggregate"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/selection"
)

// The source reports MMS timestamps in seconds on some platform
// versions and milliseconds on others. Values below this threshold
// (September 2001 in ms) are assumed to be seconds.
const msThreshold = 1_000_000_000_000

// Source provides raw MMS items for an address within a time window.
type Source interface {
	MediaForAddress(ctx context.Context, address string, fromMS, toMS int64) ([]models.RawMmsItem, error)
}

// Enricher merges MMS media into conversations.
type Enricher struct {
	src Source
	log zerolog.Logger
}

// NewEnricher creates an enricher backed by the given source.
func NewEnricher(src Source, log zerolog.Logger) *Enricher {
	return &Enricher{src: src, log: log.With().Str("component", "mms").Logger()}
}

// classifyPart decides image vs audio for one part. The classification
// is binary: anything not recognized as audio is an image.
func classifyPart(p *models.RawMmsPart) string {
	mime := strings.ToLower(p.MimeType)
	if strings.HasPrefix(mime, "audio/") {
		return "audio"
	}
	switch strings.ToLower(path.Ext(p.URI)) {
	case ".amr", ".3gp", ".m4a":
		return "audio"
	}
	return "image"
}

// normalizeTimestamp corrects the source's inconsistent timestamp unit.
func normalizeTimestamp(ts int64) int64 {
	if ts > 0 && ts < msThreshold {
		return ts * 1000
	}
	return ts
}

func placeholderBody(direction string, hasAudio bool) string {
	kind := "Photo"
	if hasAudio {
		kind = "Voice message"
	}
	if direction == models.TypeSent {
		return kind + " sent"
	}
	return kind + " received"
}

// messageFromItem builds one synthetic message per MMS row.
func messageFromItem(item *models.RawMmsItem) *models.Message {
	parts := make([]*models.MediaPart, 0, len(item.Parts))
	hasAudio := false
	for i := range item.Parts {
		raw := &item.Parts[i]
		kind := classifyPart(raw)
		if kind == "audio" {
			hasAudio = true
		}
		parts = append(parts, &models.MediaPart{
			Type:     kind,
			MimeType: raw.MimeType,
			URI:      raw.URI,
			Size:     raw.Size,
		})
	}

	msgType := models.TypeReceived
	if item.Direction == models.TypeSent {
		msgType = models.TypeSent
	}
	return &models.Message{
		ID:    "mms_" + item.MmsID,
		Body:  placeholderBody(msgType, hasAudio),
		Date:  normalizeTimestamp(item.Timestamp),
		Type:  msgType,
		IsMMS: true,
		Parts: parts,
	}
}

// Enrich fetches MMS items for the conversation's address within
// [fromMS, toMS] and merges them into its message list. The merge is
// keyed by message id, so re-enriching the same window is idempotent:
// the latest fetch wins, duplicates never accumulate, and user
// selections made before enrichment completed are preserved. When the
// conversation already carries a per-message selection, newly merged
// messages are additively selected, since the user has not yet seen
// them to deselect.
//
// A source failure is logged and leaves the conversation's SMS-only
// message list intact; it is never fatal to the pipeline.
func (e *Enricher) Enrich(ctx context.Context, conv *models.Conversation, fromMS, toMS int64, sel *selection.State) {
	items, err := e.src.MediaForAddress(ctx, conv.Address, fromMS, toMS)
	if err != nil {
		e.log.Warn().Err(err).Str("conversation", conv.ID).Msg("mms fetch failed, keeping sms-only messages")
		return
	}
	if len(items) == 0 {
		return
	}

	byID := make(map[string]*models.Message, len(conv.Messages)+len(items))
	for _, m := range conv.Messages {
		byID[m.ID] = m
	}

	// Auto-selection only applies when the user already restricted this
	// conversation to specific messages; without a restriction the whole
	// conversation exports anyway, and seeding one here would silently
	// drop the SMS half.
	restrict := sel != nil && sel.HasMessageSelection(conv.ID)

	added := 0
	for i := range items {
		msg := messageFromItem(&items[i])
		if _, exists := byID[msg.ID]; !exists {
			added++
			if restrict {
				sel.SelectMessage(conv.ID, msg.ID)
			}
		}
		byID[msg.ID] = msg
	}

	merged := make([]*models.Message, 0, len(byID))
	for _, m := range byID {
		merged = append(merged, m)
	}
	aggregate.SortMessages(merged)
	conv.Messages = merged

	if last := merged[len(merged)-1]; last.Date > conv.LastDate {
		conv.LastDate = last.Date
		conv.LastBody = last.Body
	}

	e.log.Debug().
		Str("conversation", conv.ID).
		Int("items", len(items)).
		Int("added", added).
		Msg("mms enrichment merged")
}
