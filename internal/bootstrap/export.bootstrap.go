package bootstrap

import (
	"context"

	"TemplateBoard/internal/config"
	"TemplateBoard/internal/export"
	"TemplateBoard/internal/state"
	"TemplateBoard/internal/util"

	"github.com/spf13/cobra"
)

// StartExport loads a template headlessly and writes its layout sheet.
func StartExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	endpoint, _ := cmd.Flags().GetString("endpoint")
	out, _ := cmd.Flags().GetString("out")
	if endpoint == "" {
		endpoint = config.Env.Editor.Endpoint
	}

	endpoint, err := resolveEndpoint(ctx, endpoint)
	util.ContinueOrFatal(err)

	client, err := newPanelClient(endpoint)
	util.ContinueOrFatal(err)

	fallback := state.Size{W: config.Env.Editor.DefaultWidth, H: config.Env.Editor.DefaultHeight}
	editor := state.NewEditor(state.Canvas{Width: fallback.W, Height: fallback.H})
	ctrl := state.NewController(editor, client, client, fallback)
	util.ContinueOrFatal(ctrl.Load(ctx))

	util.ContinueOrFatal(export.RenderFile(ctx, out, export.SheetFrom(editor, client.Endpoint()), client))
}
