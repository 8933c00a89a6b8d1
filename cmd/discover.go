package cmd

import (
	"TemplateBoard/internal/bootstrap"

	"github.com/spf13/cobra"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List template panels on the local network",
	Run:   bootstrap.StartDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
