package main

import (
	"github.com/chatbook/smsbridge/cmd/discover"
	"github.com/chatbook/smsbridge/cmd/dump"
	"github.com/chatbook/smsbridge/cmd/export"
	"github.com/chatbook/smsbridge/cmd/list"
	"github.com/chatbook/smsbridge/cmd/pick"
	"github.com/chatbook/smsbridge/cmd/root"
)

// Version information, set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set version information
	root.Version = version
	root.Commit = commit
	root.Date = date
	root.RootCmd.Version = version

	// Add subcommands
	root.RootCmd.AddCommand(discover.DiscoverCmd)
	root.RootCmd.AddCommand(list.ListCmd)
	root.RootCmd.AddCommand(pick.PickCmd)
	root.RootCmd.AddCommand(export.ExportCmd)
	root.RootCmd.AddCommand(dump.DumpCmd)

	// Execute
	root.Execute()
}
