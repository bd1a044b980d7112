// Package aggregate merges raw SMS records from multiple boxes into
// deduplicated, chronologically ordered conversations.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/phone"
)

// Aggregator groups raw messages by normalized phone number.
type Aggregator struct {
	Country string
	Log     zerolog.Logger
}

// New creates an aggregator for the given default country code.
func New(country string, log zerolog.Logger) *Aggregator {
	return &Aggregator{Country: country, Log: log.With().Str("component", "aggregate").Logger()}
}

// dedupID returns the stable deduplication key for a raw record: the
// source's native id when present, otherwise a composite that can still
// collide for identical rapid-fire messages (dropped records are logged,
// never errors).
func dedupID(m *models.RawMessage) string {
	if m.ID != "" {
		return m.ID
	}
	body := m.Body
	if len(body) > 50 {
		body = body[:50]
	}
	return fmt.Sprintf("%d-%s-%s-%s", m.Date, m.Address, m.Box, body)
}

// groupKey computes the conversation key for an address. Addresses that
// normalize to the same number merge regardless of spelling; addresses
// the normalizer rejects (short codes, alphanumeric senders) fall back
// to a separator-stripped form and are never merged with each other.
func (a *Aggregator) groupKey(address string) string {
	if key := phone.Normalize(address, a.Country); key != "" {
		return key
	}
	return phone.GroupKey(address)
}

// Aggregate merges any number of source lists (typically the inbox and
// sent boxes, which can overlap) into one conversation list.
//
// Guarantees on the output: every conversation has at least one message,
// message ids are unique within a conversation, messages are ordered
// ascending by date with received-before-sent tie-breaking, and the
// conversation list is ordered most-recent-first.
func (a *Aggregator) Aggregate(sources ...[]models.RawMessage) []*models.Conversation {
	var all []models.RawMessage
	for _, src := range sources {
		all = append(all, src...)
	}
	// Stable processing order only; the per-conversation order is
	// recomputed after grouping.
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date < all[j].Date })

	seen := make(map[string]struct{}, len(all))
	byKey := make(map[string]*models.Conversation)
	var order []string
	skipped := 0

	for i := range all {
		raw := &all[i]
		address := strings.TrimSpace(raw.Address)
		if address == "" {
			continue
		}

		id := dedupID(raw)
		if _, dup := seen[id]; dup {
			skipped++
			a.Log.Debug().Str("id", id).Msg("duplicate record skipped")
			continue
		}
		seen[id] = struct{}{}

		key := a.groupKey(address)
		conv, ok := byKey[key]
		if !ok {
			conv = &models.Conversation{
				ID:      key,
				Address: address, // keep the first-seen display form
			}
			byKey[key] = conv
			order = append(order, key)
		}

		msgType := models.TypeSent
		if raw.Box == models.BoxInbox {
			msgType = models.TypeReceived
		}
		conv.Messages = append(conv.Messages, &models.Message{
			ID:   id,
			Body: raw.Body,
			Date: raw.Date,
			Type: msgType,
		})
		if raw.Date >= conv.LastDate {
			conv.LastDate = raw.Date
			conv.LastBody = raw.Body
		}
	}

	list := make([]*models.Conversation, 0, len(byKey))
	for _, key := range order {
		conv := byKey[key]
		SortMessages(conv.Messages)
		list = append(list, conv)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].LastDate > list[j].LastDate })

	a.Log.Info().
		Int("records", len(all)).
		Int("duplicates", skipped).
		Int("conversations", len(list)).
		Msg("aggregation complete")
	return list
}

// SortMessages orders messages ascending by date. Same-timestamp pairs
// place received before sent, approximating natural reply order when
// clocks coincide. A zero date means "unknown time" and sorts first.
func SortMessages(msgs []*models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Date != msgs[j].Date {
			return msgs[i].Date < msgs[j].Date
		}
		return msgs[i].Type == models.TypeReceived && msgs[j].Type == models.TypeSent
	})
}
