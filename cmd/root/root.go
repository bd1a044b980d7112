package root

import (
	"fmt"
	"os"

	"github.com/chatbook/smsbridge/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var (
	// Version information - will be set by goreleaser
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command
var RootCmd = &cobra.Command{
	Use:   "smsbridge",
	Short: "Export phone SMS/MMS conversations for the web",
	Long: `Smsbridge reads an Android telephony database backup, merges SMS and MMS
into conversations, and uploads a selection as a shareable export.

The upload produces a short code that the companion web app uses to
retrieve the conversations.

Quick start:
  smsbridge discover                  # Find database backups
  smsbridge list --db mmssms.db       # Preview conversations
  smsbridge pick --db mmssms.db       # Choose conversations interactively
  smsbridge export --db mmssms.db --all --days 30`,
	Version: Version,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize configuration
		if err := config.Init(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Logger returns the process logger, configured from the --verbose flag.
// Output goes to stderr so stdout stays pipe-friendly.
func Logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/smsbridge/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv() // read in environment variables that match
}
