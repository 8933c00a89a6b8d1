package bootstrap

import (
	"context"

	"TemplateBoard/internal/config"
	"TemplateBoard/internal/state"
	"TemplateBoard/internal/ui"
	"TemplateBoard/internal/util"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartEditor(cmd *cobra.Command, args []string) {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	if endpoint == "" {
		endpoint = config.Env.Editor.Endpoint
	}

	endpoint, err := resolveEndpoint(context.Background(), endpoint)
	util.ContinueOrFatal(err)

	client, err := newPanelClient(endpoint)
	util.ContinueOrFatal(err)
	logrus.WithField("endpoint", client.Endpoint()).Info("starting editor")

	ui.RunApp(ui.Options{
		Title:  "Template Editor - " + client.Endpoint(),
		Store:  client,
		Sizer:  client,
		Images: client,
		Files:  client,
		DefaultSize: state.Size{
			W: config.Env.Editor.DefaultWidth,
			H: config.Env.Editor.DefaultHeight,
		},
	})
}
