package list

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chatbook/smsbridge/cmd/root"
	"github.com/chatbook/smsbridge/internal/config"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/phone"
	"github.com/chatbook/smsbridge/internal/pipeline"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/spf13/cobra"
)

var (
	dbPath       string
	contactsPath string
	limit        int
	sortBy       string
	searchTerm   string
	quiet        bool
	format       string
)

type row struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastMessage  string `json:"last_message"`
	LastDate     string `json:"last_date"`
	Range        string `json:"range"`
	MessageCount int    `json:"message_count"`
}

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations in a database backup",
	Long: `List the conversations found in an SMS database backup, merged across
the inbox and sent boxes, with contact names where available.

Examples:
  smsbridge list --db mmssms.db
  smsbridge list --db mmssms.db --limit 20
  smsbridge list --db mmssms.db --search "marie"
  smsbridge list --db mmssms.db --format json`,
	RunE: runList,
}

func init() {
	ListCmd.Flags().StringVar(&dbPath, "db", "", "path to the sms database backup (default from config)")
	ListCmd.Flags().StringVar(&contactsPath, "contacts", "", "path to a contacts JSON file (default from config)")
	ListCmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum number of conversations to show")
	ListCmd.Flags().StringVarP(&sortBy, "sort", "s", "date", "sort by: date, name, or messages")
	ListCmd.Flags().StringVar(&searchTerm, "search", "", "filter conversations by name or number")
	ListCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress extra output (pipe-friendly)")
	ListCmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/json/csv)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := root.Logger()

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
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	convs, err := pipeline.Load(context.Background(), store, pipeline.Options{
		Country:      cfg.Export.Country,
		MaxCount:     cfg.SMS.MaxCount,
		ContactsPath: contactsPath,
	}, log)
	if err != nil {
		return err
	}

	convs = filterConversations(convs, searchTerm)
	total := len(convs)
	sortConversations(convs, sortBy)
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}

	if len(convs) == 0 {
		if !quiet {
			fmt.Println("No conversations found.")
		}
		return nil
	}

	rows := make([]row, 0, len(convs))
	for _, c := range convs {
		rows = append(rows, row{
			ID:           c.ID,
			Name:         displayName(c),
			LastMessage:  c.LastBody,
			LastDate:     time.UnixMilli(c.LastDate).Format(time.RFC3339),
			Range:        c.DateRangeLabel(),
			MessageCount: len(c.Messages),
		})
	}

	switch format {
	case "json":
		return outputJSON(rows, total)
	case "csv":
		return outputCSV(rows)
	default:
		return outputTable(rows, total, searchTerm, quiet)
	}
}

func displayName(c *models.Conversation) string {
	if c.Name != "" {
		return c.Name
	}
	return phone.FormatForDisplay(c.ID)
}

func filterConversations(convs []*models.Conversation, term string) []*models.Conversation {
	if term == "" {
		return convs
	}
	term = strings.ToLower(term)
	var out []*models.Conversation
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.ID), term) ||
			strings.Contains(strings.ToLower(c.Address), term) {
			out = append(out, c)
		}
	}
	return out
}

func sortConversations(convs []*models.Conversation, by string) {
	switch by {
	case "name":
		sort.SliceStable(convs, func(i, j int) bool {
			return strings.ToLower(displayName(convs[i])) < strings.ToLower(displayName(convs[j]))
		})
	case "messages":
		sort.SliceStable(convs, func(i, j int) bool {
			return len(convs[i].Messages) > len(convs[j].Messages)
		})
	default: // date, already newest first from the aggregator
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func outputTable(rows []row, total int, searchTerm string, quiet bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tMessages\tRange\tName\tPreview"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t--------\t-----\t----\t-------"); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, r := range rows {
		preview := truncate(strings.ReplaceAll(r.LastMessage, "\n", " "), 40)
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.MessageCount, r.Range, truncate(r.Name, 30), preview); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if !quiet {
		fmt.Printf("\nShowing %d of %d conversations", len(rows), total)
		if searchTerm != "" {
			fmt.Printf(" (filtered by '%s')", searchTerm)
		}
		fmt.Println()
	}

	return nil
}

func outputJSON(rows []row, total int) error {
	output := map[string]interface{}{
		"conversations": rows,
		"count":         len(rows),
		"total":         total,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputCSV(rows []row) error {
	w := csv.NewWriter(os.Stdout)

	if err := w.Write([]string{"id", "name", "message_count", "last_date", "last_message"}); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.ID, r.Name, fmt.Sprintf("%d", r.MessageCount), r.LastDate, r.LastMessage}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
