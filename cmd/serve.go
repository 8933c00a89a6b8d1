package cmd

import (
	"TemplateBoard/internal/bootstrap"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local template API",
	Long: `Serves the template API from a directory of JSON files, with media files
under /media. The panel is advertised over mDNS so editors can find it.`,
	Run: bootstrap.StartPanel,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
