package cmd

import (
	"TemplateBoard/internal/bootstrap"

	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a template layout to PDF",
	Run:   bootstrap.StartExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("endpoint", "", "template API URL")
	exportCmd.Flags().StringP("out", "o", "template.pdf", "output file")
}
