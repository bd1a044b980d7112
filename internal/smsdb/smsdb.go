// Package smsdb reads SMS and MMS records from a copy of the Android
// telephony database (mmssms.db).
package smsdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/chatbook/smsbridge/internal/models"
)

// Telephony box column values.
const (
	boxColInbox = 1
	boxColSent  = 2
)

// How many trailing digits are compared when matching an address
// against the MMS addr table. Handles country prefixes and separators.
const addressTailLen = 8

var nonDigits = regexp.MustCompile(`\D`)

// Filter selects a slice of one SMS box.
type Filter struct {
	Box       string // "inbox" or "sent"
	IndexFrom int
	MaxCount  int
}

// Store is a read-only view over one telephony database file.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger

	// MediaRoot remaps MMS part file paths: the _data column records
	// device-absolute paths that do not exist in an offline copy.
	MediaRoot string
}

// Open opens the database file read-only.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("sms database not found: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sms database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return &Store{
		conn: conn,
		log:  log.With().Str("component", "smsdb").Logger(),
	}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// List returns raw SMS records from one box, newest first, honoring the
// filter's window. It is called once per box; the aggregator combines
// and deduplicates the results.
func (s *Store) List(ctx context.Context, f Filter) ([]models.RawMessage, error) {
	boxCol := boxColInbox
	if f.Box == models.BoxSent {
		boxCol = boxColSent
	}
	maxCount := f.MaxCount
	if maxCount <= 0 {
		maxCount = 2000
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT _id, address, body, date
		FROM sms
		WHERE type = ?
		ORDER BY date DESC
		LIMIT ? OFFSET ?`,
		boxCol, maxCount, f.IndexFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s box: %w", f.Box, err)
	}
	defer rows.Close()

	var out []models.RawMessage
	for rows.Next() {
		var (
			id      int64
			address sql.NullString
			body    sql.NullString
			date    sql.NullInt64
		)
		if err := rows.Scan(&id, &address, &body, &date); err != nil {
			return nil, fmt.Errorf("failed to scan sms row: %w", err)
		}
		out = append(out, models.RawMessage{
			ID:      fmt.Sprintf("%d", id),
			Address: address.String,
			Body:    body.String,
			Date:    date.Int64,
			Box:     f.Box,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sms rows: %w", err)
	}

	s.log.Debug().Str("box", f.Box).Int("count", len(out)).Msg("sms box read")
	return out, nil
}

// addressTail returns the trailing digits used for fuzzy address
// matching, or "" when the address has no digits at all.
func addressTail(address string) string {
	digits := nonDigits.ReplaceAllString(address, "")
	if digits == "" {
		return ""
	}
	if len(digits) > addressTailLen {
		digits = digits[len(digits)-addressTailLen:]
	}
	return digits
}

func (s *Store) resolvePartPath(data string) string {
	if s.MediaRoot == "" {
		return data
	}
	return filepath.Join(s.MediaRoot, filepath.Base(data))
}

// MediaForAddress returns the MMS items exchanged with an address in
// [fromMS, toMS]. The pdu table stores dates in seconds; the raw
// timestamps are returned as-is (in seconds) and corrected downstream.
// Items without media parts are omitted.
func (s *Store) MediaForAddress(ctx context.Context, address string, fromMS, toMS int64) ([]models.RawMmsItem, error) {
	tail := addressTail(address)
	if tail == "" {
		return nil, nil
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT DISTINCT p._id, p.date, p.msg_box
		FROM pdu p
		JOIN addr a ON a.msg_id = p._id
		WHERE a.address LIKE ? AND p.date >= ? AND p.date <= ?
		ORDER BY p.date ASC`,
		"%"+tail, fromMS/1000, toMS/1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query mms rows: %w", err)
	}
	defer rows.Close()

	type pduRow struct {
		id     int64
		date   int64
		msgBox int
	}
	var pdus []pduRow
	for rows.Next() {
		var r pduRow
		if err := rows.Scan(&r.id, &r.date, &r.msgBox); err != nil {
			return nil, fmt.Errorf("failed to scan mms row: %w", err)
		}
		pdus = append(pdus, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mms rows: %w", err)
	}

	var items []models.RawMmsItem
	for _, p := range pdus {
		parts, err := s.partsFor(ctx, p.id)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			continue
		}
		direction := models.TypeSent
		if p.msgBox == boxColInbox {
			direction = models.TypeReceived
		}
		items = append(items, models.RawMmsItem{
			MmsID:     fmt.Sprintf("%d", p.id),
			Timestamp: p.date, // seconds at this layer
			Direction: direction,
			Parts:     parts,
		})
	}

	s.log.Debug().Str("address", address).Int("items", len(items)).Msg("mms media read")
	return items, nil
}

func (s *Store) partsFor(ctx context.Context, mmsID int64) ([]models.RawMmsPart, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT _id, ct, _data
		FROM part
		WHERE mid = ? AND ct NOT IN ('application/smil', 'text/plain')`,
		mmsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mms parts: %w", err)
	}
	defer rows.Close()

	var parts []models.RawMmsPart
	for rows.Next() {
		var (
			id   int64
			ct   sql.NullString
			data sql.NullString
		)
		if err := rows.Scan(&id, &ct, &data); err != nil {
			return nil, fmt.Errorf("failed to scan mms part: %w", err)
		}
		if data.String == "" {
			continue // part with no backing file
		}
		local := s.resolvePartPath(data.String)
		var size int64
		if info, err := os.Stat(local); err == nil {
			size = info.Size()
		} else {
			s.log.Debug().Str("path", local).Msg("mms part file missing")
		}
		parts = append(parts, models.RawMmsPart{
			PartID:   fmt.Sprintf("%d", id),
			MimeType: strings.ToLower(ct.String),
			URI:      local,
			Size:     size,
		})
	}
	return parts, rows.Err()
}

// CopyPartToCache copies a part's backing file into the cache dir under
// a fresh random name, returning the cached path and size. Needed
// because part paths can point at transient locations that must survive
// until the upload completes.
func CopyPartToCache(uri, cacheDir string) (string, int64, error) {
	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read part: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create cache dir: %w", err)
	}
	name := uuid.NewString()
	if ext := filepath.Ext(uri); ext != "" {
		name += ext
	}
	dest := filepath.Join(cacheDir, name)
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return "", 0, fmt.Errorf("failed to write cache file: %w", err)
	}
	return dest, int64(len(data)), nil
}
