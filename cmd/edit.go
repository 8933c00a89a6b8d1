package cmd

import (
	"TemplateBoard/internal/bootstrap"

	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the template editor",
	Long: `Opens the canvas editor for one template. The template endpoint comes from
--endpoint, the editor.endpoint setting, or the first panel found over mDNS.`,
	Run: bootstrap.StartEditor,
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().String("endpoint", "", "template API URL, e.g. http://panel/api/templates/1/")
}
