package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatbook/smsbridge/internal/models"
)

const (
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen    = 6
	codeChecks = 3

	metadataPath = "mobile-imports"
	payloadPath  = "mobile-imports-data"

	// Export codes expire server-side; stale keys from failed exports
	// are garbage-collected by the same policy.
	codeTTL = 24 * time.Hour
)

// DefaultStorageURL is the blob store endpoint.
const DefaultStorageURL = "https://firebasestorage.googleapis.com"

// Metadata is the small record written before the payload. The remote
// access rules require it to exist before the payload is readable.
type Metadata struct {
	DownloadURL      string `json:"downloadURL"`
	CreatedAt        int64  `json:"createdAt"`
	ExpiresAt        int64  `json:"expiresAt"`
	Platform         string `json:"platform"`
	MessageCount     int    `json:"messageCount"`
	ConversationName string `json:"conversationName"`
}

// Uploader writes an export to the remote key-value store and its media
// to the blob store, returning the 6-character import code.
type Uploader struct {
	Client      *http.Client
	DatabaseURL string // Realtime-Database-style base URL
	StorageURL  string // blob store base URL, DefaultStorageURL when empty
	Bucket      string
	Log         zerolog.Logger

	genCode func() string // overridable for tests
}

// NewUploader creates an uploader against the given remote store.
func NewUploader(databaseURL, bucket string, log zerolog.Logger) *Uploader {
	return &Uploader{
		Client:      &http.Client{Timeout: 60 * time.Second},
		DatabaseURL: strings.TrimRight(databaseURL, "/"),
		StorageURL:  DefaultStorageURL,
		Bucket:      bucket,
		Log:         log.With().Str("component", "upload").Logger(),
		genCode:     generateCode,
	}
}

func generateCode() string {
	b := make([]byte, codeLen)
	for i := range b {
		b[i] = codeChars[rand.IntN(len(codeChars))]
	}
	return string(b)
}

func (u *Uploader) metadataURL(code string) string {
	return fmt.Sprintf("%s/%s/%s.json", u.DatabaseURL, metadataPath, code)
}

func (u *Uploader) payloadURL(code string) string {
	return fmt.Sprintf("%s/%s/%s.json", u.DatabaseURL, payloadPath, code)
}

// codeExists checks the remote store for an existing metadata record.
// Any failure reads as "free": availability is favored over strict
// uniqueness in a 36^6 key space.
func (u *Uploader) codeExists(ctx context.Context, code string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.metadataURL(code), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	resp, err := u.Client.Do(req)
	if err != nil {
		u.Log.Warn().Err(err).Str("code", code).Msg("code uniqueness check failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		u.Log.Warn().Int("status", resp.StatusCode).Str("code", code).Msg("code uniqueness check failed")
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) != "null"
}

// uniqueCode generates a code and makes a bounded best-effort attempt to
// confirm it is unused. After codeChecks collisions or on persistent
// read failure the last generated code is used anyway.
func (u *Uploader) uniqueCode(ctx context.Context) string {
	code := u.genCode()
	for i := 0; i < codeChecks && u.codeExists(ctx, code); i++ {
		code = u.genCode()
	}
	return code
}

// uploadPart sends one media file to the blob store and annotates the
// part with the public URL.
func (u *Uploader) uploadPart(ctx context.Context, code string, part *models.MediaPart) error {
	local := strings.TrimPrefix(part.URI, "file://")
	data, err := os.ReadFile(local)
	if err != nil {
		return fmt.Errorf("failed to read media file: %w", err)
	}

	remotePath := fmt.Sprintf("%s/%s/media/%s", metadataPath, code, path.Base(local))
	endpoint := fmt.Sprintf("%s/v0/b/%s/o?name=%s", u.StorageURL, u.Bucket, url.QueryEscape(remotePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	contentType := part.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("blob upload failed with status %d", resp.StatusCode)
	}

	var meta struct {
		DownloadTokens string `json:"downloadTokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return fmt.Errorf("malformed blob upload response: %w", err)
	}

	part.FirebasePath = remotePath
	part.URL = fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		u.StorageURL, u.Bucket, url.QueryEscape(remotePath), meta.DownloadTokens)
	return nil
}

// uploadMedia uploads every part concurrently. Failures are recorded on
// the failing part and never abort the others or the export.
func (u *Uploader) uploadMedia(ctx context.Context, code string, parts []*models.MediaPart) {
	var wg sync.WaitGroup
	for _, part := range parts {
		wg.Add(1)
		go func(p *models.MediaPart) {
			defer wg.Done()
			if err := u.uploadPart(ctx, code, p); err != nil {
				u.Log.Warn().Err(err).Str("uri", p.URI).Msg("media part upload failed")
				p.Error = "upload failed"
			}
		}(part)
	}
	wg.Wait()
}

func (u *Uploader) put(ctx context.Context, target string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := u.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Upload runs the export state machine: generate a code, upload media
// (parallel, best-effort), write metadata, then write the payload.
//
// A metadata failure is fatal and the payload write is never attempted;
// a payload failure is fatal too. Either is wrapped in *ExportError. An
// already-minted code from a failed export is simply orphaned: the
// server-side expiry collects it.
func (u *Uploader) Upload(ctx context.Context, payload *models.ExportPayload, parts []*models.MediaPart) (string, error) {
	code := u.uniqueCode(ctx)
	u.Log.Info().Str("code", code).Int("media", len(parts)).Msg("starting upload")

	u.uploadMedia(ctx, code, parts)

	now := time.Now()
	meta := Metadata{
		DownloadURL:      u.payloadURL(code),
		CreatedAt:        now.UnixMilli(),
		ExpiresAt:        now.Add(codeTTL).UnixMilli(),
		Platform:         payload.Platform,
		MessageCount:     payload.Metadata.MessageCount,
		ConversationName: payload.Metadata.ConversationNames,
	}
	if err := u.put(ctx, u.metadataURL(code), &meta); err != nil {
		return "", &ExportError{Stage: "metadata", Err: fmt.Errorf("%w: %v", ErrMetadataWrite, err)}
	}

	if err := u.put(ctx, u.payloadURL(code), payload); err != nil {
		return "", &ExportError{Stage: "payload", Err: fmt.Errorf("%w: %v", ErrPayloadWrite, err)}
	}

	u.Log.Info().Str("code", code).Msg("export uploaded")
	return code, nil
}
