package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chatbook/smsbridge/cmd/root"
	"github.com/chatbook/smsbridge/internal/config"
	"github.com/chatbook/smsbridge/internal/export"
	"github.com/chatbook/smsbridge/internal/mms"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/pipeline"
	"github.com/chatbook/smsbridge/internal/selection"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	dbPath          string
	contactsPath    string
	conversationIDs []string
	all             bool
	fromStr         string
	toStr           string
	days            int
	withText        bool
	withImages      bool
	withAudio       bool
	dryRun          bool
	outFile         string
	quiet           bool
)

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload conversations and get a share code",
	Long: `Export conversations from an SMS database backup: merge the message
boxes, attach MMS media, and upload the result. On success the command
prints a six character code the companion web app accepts.

Examples:
  # Export everything from the last 30 days
  smsbridge export --db mmssms.db --all

  # Export two conversations over a fixed window
  smsbridge export --db mmssms.db -c +33612345678 -c +33698765432 \
      --from 2024-01-01 --to 2024-03-31

  # Check what would be uploaded, including the audio volume
  smsbridge export --db mmssms.db --all --dry-run

  # Write the payload to a file instead of uploading
  smsbridge export --db mmssms.db --all --out payload.json`,
	RunE: runExport,
}

func init() {
	ExportCmd.Flags().StringVar(&dbPath, "db", "", "path to the sms database backup (default from config)")
	ExportCmd.Flags().StringVar(&contactsPath, "contacts", "", "path to a contacts JSON file (default from config)")
	ExportCmd.Flags().StringArrayVarP(&conversationIDs, "conversation", "c", nil, "conversation id to export (repeatable)")
	ExportCmd.Flags().BoolVarP(&all, "all", "a", false, "export every conversation in the window")
	ExportCmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	ExportCmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD, inclusive)")
	ExportCmd.Flags().IntVar(&days, "days", 0, "export the last N days (default from config)")
	ExportCmd.Flags().BoolVar(&withText, "text", true, "include text messages")
	ExportCmd.Flags().BoolVar(&withImages, "images", true, "include photos")
	ExportCmd.Flags().BoolVar(&withAudio, "audio", true, "include voice messages")
	ExportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "assemble only, print counts and sizes")
	ExportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the payload to a file instead of uploading")
	ExportCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the code")
}

func runExport(cmd *cobra.Command, args []string) error {
	if !all && len(conversationIDs) == 0 {
		return fmt.Errorf("nothing selected: pass --all or at least one --conversation")
	}

	cfg := config.Get()
	log := root.Logger()
	ctx := context.Background()

	if dbPath == "" {
		dbPath = cfg.SMS.DBPath
	}
	if contactsPath == "" {
		contactsPath = cfg.Contacts.Path
	}

	from, to, err := resolveWindow(cfg.Export.DefaultDays)
	if err != nil {
		return err
	}

	store, err := smsdb.Open(dbPath, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	store.MediaRoot = cfg.SMS.MediaRoot
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	convs, err := pipeline.Load(ctx, store, pipeline.Options{
		Country:      cfg.Export.Country,
		MaxCount:     cfg.SMS.MaxCount,
		ContactsPath: contactsPath,
	}, log)
	if err != nil {
		return err
	}

	sel := buildSelection(convs)
	if sel.ConversationCount() == 0 {
		return fmt.Errorf("no conversation matches the given ids")
	}

	// Media only matters for selected conversations
	opts := models.ExportOptions{IncludeText: withText, IncludeImages: withImages, IncludeAudio: withAudio}
	if opts.IncludeImages || opts.IncludeAudio {
		enricher := mms.NewEnricher(store, log)
		fromMS := from.UnixMilli()
		toMS := to.Add(24 * time.Hour).UnixMilli()
		for _, conv := range convs {
			if sel.IsConversationSelected(conv.ID) {
				enricher.Enrich(ctx, conv, fromMS, toMS, sel)
			}
		}
	}

	assembler := export.NewAssembler(log)
	assembler.MaxAudio = cfg.Export.MaxAudioBytes
	payload, parts, err := assembler.Assemble(convs, from, to, sel, opts)
	if err != nil {
		var tooBig *export.AudioSizeError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w (re-run with --audio=false to drop voice messages)", tooBig)
		}
		return err
	}

	if dryRun {
		return printDryRun(payload, parts)
	}

	if outFile != "" {
		return writePayload(payload, outFile)
	}

	// Stage media into the app cache so the upload does not depend on
	// the backup staying where it was. A failed copy keeps the original
	// path; the uploader reports per-part errors.
	cacheDir := config.CacheDir()
	if err := os.MkdirAll(cacheDir, 0755); err == nil {
		for _, p := range parts {
			if cached, size, err := smsdb.CopyPartToCache(p.URI, cacheDir); err == nil {
				p.URI = cached
				p.Size = size
			}
		}
	}

	uploader := export.NewUploader(cfg.Remote.DatabaseURL, cfg.Remote.StorageBucket, log)
	code, err := uploader.Upload(ctx, payload, parts)
	if err != nil {
		return err
	}

	if quiet {
		fmt.Println(code)
		return nil
	}

	fmt.Printf("Export complete: %d messages from %d conversations\n",
		payload.Metadata.MessageCount, payload.Metadata.ConversationCount)
	fmt.Printf("\nCode: %s\n", code)
	fmt.Printf("Open: %s/import/%s\n", cfg.Remote.WebURL, code)

	if err := writeToClipboard(code); err != nil {
		log.Debug().Err(err).Msg("clipboard unavailable")
	} else {
		fmt.Println("(code copied to clipboard)")
	}

	return nil
}

// resolveWindow turns --from/--to/--days into a concrete date range.
// With no flags the window is the configured number of trailing days.
func resolveWindow(defaultDays int) (time.Time, time.Time, error) {
	now := time.Now()

	if days > 0 && (fromStr != "" || toStr != "") {
		return time.Time{}, time.Time{}, fmt.Errorf("--days cannot be combined with --from/--to")
	}

	if days > 0 {
		return now.AddDate(0, 0, -days), now, nil
	}

	if fromStr == "" && toStr == "" {
		return now.AddDate(0, 0, -defaultDays), now, nil
	}

	from, err := parseDay(fromStr, now.AddDate(0, 0, -defaultDays))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
	}
	to, err := parseDay(toStr, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return from, to, nil
}

func parseDay(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func buildSelection(convs []*models.Conversation) *selection.State {
	sel := selection.NewState()
	if all {
		for _, c := range convs {
			sel.SelectConversation(c.ID)
		}
		return sel
	}
	known := make(map[string]bool, len(convs))
	for _, c := range convs {
		known[c.ID] = true
	}
	for _, id := range conversationIDs {
		if known[id] {
			sel.SelectConversation(id)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: no conversation with id %s\n", id)
		}
	}
	return sel
}

func printDryRun(payload *models.ExportPayload, parts []*models.MediaPart) error {
	var mediaBytes, audioBytes uint64
	var audioCount int
	for _, p := range parts {
		mediaBytes += uint64(p.Size)
		if p.Type == "audio" {
			audioBytes += uint64(p.Size)
			audioCount++
		}
	}

	fmt.Printf("Would export %d messages from %d conversations\n",
		payload.Metadata.MessageCount, payload.Metadata.ConversationCount)
	fmt.Printf("Media: %d files, %s", len(parts), humanize.IBytes(mediaBytes))
	if audioCount > 0 {
		fmt.Printf(" (of which %d voice messages, %s)", audioCount, humanize.IBytes(audioBytes))
	}
	fmt.Println()
	fmt.Printf("Range: %s to %s\n", payload.Metadata.DateFrom[:10], payload.Metadata.DateTo[:10])
	return nil
}

func writePayload(payload *models.ExportPayload, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	if !quiet {
		fmt.Printf("Payload written to %s (%d messages)\n", path, payload.Metadata.MessageCount)
	}
	return nil
}
