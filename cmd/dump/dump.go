package dump

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/chatbook/smsbridge/cmd/root"
	"github.com/chatbook/smsbridge/internal/config"
	"github.com/chatbook/smsbridge/internal/export"
	"github.com/chatbook/smsbridge/internal/mms"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/pipeline"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/spf13/cobra"
)

var (
	dbPath       string
	contactsPath string
	outputFormat string
	outputFile   string
	withMedia    bool
)

// DumpCmd represents the dump command
var DumpCmd = &cobra.Command{
	Use:   "dump <conversation-id>",
	Short: "Write one conversation as a local transcript",
	Long: `Write a single conversation to stdout or a file, without uploading
anything.

Examples:
  smsbridge dump +33612345678 --db mmssms.db
  smsbridge dump +33612345678 --db mmssms.db --format json -o marie.json
  smsbridge dump +33612345678 --db mmssms.db | grep rendez-vous`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	DumpCmd.Flags().StringVar(&dbPath, "db", "", "path to the sms database backup (default from config)")
	DumpCmd.Flags().StringVar(&contactsPath, "contacts", "", "path to a contacts JSON file (default from config)")
	DumpCmd.Flags().StringVarP(&outputFormat, "format", "f", "markdown", "output format: markdown, text, or json")
	DumpCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to file instead of stdout")
	DumpCmd.Flags().BoolVar(&withMedia, "media", false, "also list MMS media placeholders")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := root.Logger()
	ctx := context.Background()

	if dbPath == "" {
		dbPath = cfg.SMS.DBPath
	}
	if contactsPath == "" {
		contactsPath = cfg.Contacts.Path
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

	conv := findConversation(convs, args[0])
	if conv == nil {
		return fmt.Errorf("no conversation with id %s", args[0])
	}

	if withMedia {
		enricher := mms.NewEnricher(store, log)
		enricher.Enrich(ctx, conv, 0, math.MaxInt64, nil)
	}

	text, err := export.FormatTranscript(conv, outputFormat)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outputFile)
	return nil
}

func findConversation(convs []*models.Conversation, id string) *models.Conversation {
	for _, c := range convs {
		if c.ID == id || c.Address == id {
			return c
		}
	}
	return nil
}
