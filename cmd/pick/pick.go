package pick

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chatbook/smsbridge/cmd/root"
	"github.com/chatbook/smsbridge/internal/config"
	"github.com/chatbook/smsbridge/internal/export"
	"github.com/chatbook/smsbridge/internal/mms"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/pipeline"
	"github.com/chatbook/smsbridge/internal/selection"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/spf13/cobra"
)

var (
	dbPath       string
	contactsPath string
	days         int
	withText     bool
	withImages   bool
	withAudio    bool
)

// PickCmd represents the pick command
var PickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose conversations interactively and export them",
	Long: `Browse the conversations in a database backup, tick the ones to share
(or individual messages inside them), and launch the export.

Keys:
  space   toggle the highlighted conversation or message
  enter   open a conversation to pick single messages
  e       export the current selection
  q       quit without exporting`,
	RunE: runPick,
}

func init() {
	PickCmd.Flags().StringVar(&dbPath, "db", "", "path to the sms database backup (default from config)")
	PickCmd.Flags().StringVar(&contactsPath, "contacts", "", "path to a contacts JSON file (default from config)")
	PickCmd.Flags().IntVar(&days, "days", 0, "export the last N days (default from config)")
	PickCmd.Flags().BoolVar(&withText, "text", true, "include text messages")
	PickCmd.Flags().BoolVar(&withImages, "images", true, "include photos")
	PickCmd.Flags().BoolVar(&withAudio, "audio", true, "include voice messages")
}

func runPick(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := root.Logger()
	ctx := context.Background()

	if dbPath == "" {
		dbPath = cfg.SMS.DBPath
	}
	if contactsPath == "" {
		contactsPath = cfg.Contacts.Path
	}
	window := days
	if window <= 0 {
		window = cfg.Export.DefaultDays
	}
	to := time.Now()
	from := to.AddDate(0, 0, -window)

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
	if len(convs) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	// Attach MMS up front so message picking shows media too. No
	// selection state is passed: the user sees everything and picks.
	opts := models.ExportOptions{IncludeText: withText, IncludeImages: withImages, IncludeAudio: withAudio}
	if opts.IncludeImages || opts.IncludeAudio {
		enricher := mms.NewEnricher(store, log)
		for _, conv := range convs {
			enricher.Enrich(ctx, conv, from.UnixMilli(), to.UnixMilli(), nil)
		}
	}

	model := newPickModel(convs, selection.NewState())

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}

	result, ok := final.(pickModel)
	if !ok || !result.doExport {
		return nil
	}

	assembler := export.NewAssembler(log)
	assembler.MaxAudio = cfg.Export.MaxAudioBytes
	payload, parts, err := assembler.Assemble(convs, from, to, result.sel, opts)
	if err != nil {
		return err
	}

	uploader := export.NewUploader(cfg.Remote.DatabaseURL, cfg.Remote.StorageBucket, log)
	code, err := uploader.Upload(ctx, payload, parts)
	if err != nil {
		return err
	}

	fmt.Printf("Export complete: %d messages from %d conversations\n",
		payload.Metadata.MessageCount, payload.Metadata.ConversationCount)
	fmt.Printf("\nCode: %s\n", code)
	fmt.Printf("Open: %s/import/%s\n", cfg.Remote.WebURL, code)

	return nil
}
