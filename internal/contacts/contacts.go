// Package contacts maps normalized phone numbers to contact names.
package contacts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/phone"
)

// Resolver builds and applies a normalized-number -> display-name map.
type Resolver struct {
	Country string
	Log     zerolog.Logger
}

// NewResolver creates a resolver for the given default country code.
func NewResolver(country string, log zerolog.Logger) *Resolver {
	return &Resolver{Country: country, Log: log.With().Str("component", "contacts").Logger()}
}

// BuildMap normalizes every phone number of every contact. When several
// entries normalize to the same key, the longest non-empty display name
// wins; on equal length the first seen is kept. This collapses the
// local/international duplicate pairs that contact stores accumulate.
func (r *Resolver) BuildMap(raw []models.RawContact) map[string]string {
	m := make(map[string]string)
	for i := range raw {
		name := raw[i].Name()
		if name == "" {
			continue
		}
		for _, p := range raw[i].PhoneNumbers {
			if p.Number == "" {
				continue
			}
			key := phone.Normalize(p.Number, r.Country)
			if key == "" {
				r.Log.Debug().Str("number", p.Number).Str("contact", name).Msg("unrecognized contact number")
				continue
			}
			if existing, ok := m[key]; !ok || len(name) > len(existing) {
				m[key] = name
			}
		}
	}
	r.Log.Debug().Int("contacts", len(raw)).Int("numbers", len(m)).Msg("contact map built")
	return m
}

// ResolveNames fills in conversation names from the map. Conversations
// without a matching contact keep an empty name; callers display the
// address instead. Resolution is all-or-nothing per conversation, never
// an error.
func (r *Resolver) ResolveNames(convs []*models.Conversation, m map[string]string) {
	if len(m) == 0 {
		return
	}
	resolved := 0
	for _, c := range convs {
		if name, ok := m[c.ID]; ok {
			c.Name = name
			resolved++
			continue
		}
		// The grouping key can differ from the contact key when the
		// address only normalized via the fallback path.
		if key := phone.Normalize(c.Address, r.Country); key != "" {
			if name, ok := m[key]; ok {
				c.Name = name
				resolved++
			}
		}
	}
	r.Log.Debug().Int("resolved", resolved).Int("total", len(convs)).Msg("names resolved")
}

// LoadFile reads a JSON contacts export (an array of contacts with
// displayName/givenName/familyName/phoneNumbers). A missing or
// malformed file is an error; callers degrade to unresolved names.
func LoadFile(path string) ([]models.RawContact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts file: %w", err)
	}
	var raw []models.RawContact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed contacts file: %w", err)
	}
	return raw, nil
}
