package discover

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chatbook/smsbridge/internal/discovery"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	includePaths []string
	showInvalid  bool
	listPaths    bool
)

// DiscoverCmd represents the discover command
var DiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find SMS database backups in common locations",
	Long: `Scan the Downloads folder and other usual drop locations for database
files that look like Android telephony backups, and validate them.

Examples:
  smsbridge discover
  smsbridge discover --include ~/phone-backups
  smsbridge discover --show-invalid`,
	RunE: runDiscover,
}

func init() {
	DiscoverCmd.Flags().StringSliceVarP(&includePaths, "include", "i", nil, "additional directories to search")
	DiscoverCmd.Flags().BoolVar(&showInvalid, "show-invalid", false, "also show files that match by name but fail validation")
	DiscoverCmd.Flags().BoolVar(&listPaths, "paths", false, "show which directories are being searched")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	for _, path := range includePaths {
		scanner.AddPath(path)
	}

	if listPaths {
		fmt.Println("Searching in:")
		for _, path := range scanner.SearchPaths() {
			fmt.Printf("  - %s\n", path)
		}
		fmt.Println()
	}

	backups, err := scanner.Scan()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	var shown []*discovery.BackupFile
	for _, b := range backups {
		if b.IsValid || showInvalid {
			shown = append(shown, b)
		}
	}

	if len(shown) == 0 {
		fmt.Println("No database backups found.")
		fmt.Println("\nCopy mmssms.db from your phone backup into Downloads and retry,")
		fmt.Println("or point a command directly at it with --db.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Path\tSize\tModified\tMessages\tMMS\tRange")
	for _, b := range shown {
		if !b.IsValid {
			fmt.Fprintf(w, "%s\t%s\t%s\tinvalid: %s\t\t\n",
				b.Path, humanize.IBytes(uint64(b.Size)),
				b.ModTime.Format("2006-01-02"), b.ErrorMessage)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			b.Path, humanize.IBytes(uint64(b.Size)),
			b.ModTime.Format("2006-01-02"),
			b.Preview.MessageCount, b.Preview.MmsCount, b.Preview.DateRange)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if newest := firstValid(shown); newest != nil {
		age := time.Since(newest.ModTime).Round(time.Hour)
		fmt.Printf("\nMost recent backup is %s old. Next:\n", age)
		fmt.Printf("  smsbridge list --db %s\n", newest.Path)
	}

	return nil
}

func firstValid(backups []*discovery.BackupFile) *discovery.BackupFile {
	for _, b := range backups {
		if b.IsValid {
			return b
		}
	}
	return nil
}
