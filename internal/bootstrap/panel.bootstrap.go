package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"TemplateBoard/internal/config"
	boardnet "TemplateBoard/internal/net"
	"TemplateBoard/internal/panel"
	"TemplateBoard/internal/util"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartPanel serves the template API from disk and advertises it over mDNS.
func StartPanel(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := config.Env.Panel

	store, err := panel.NewFileStore(cfg.DataDir)
	util.ContinueOrFatal(err)

	err = store.Create(cfg.TemplateID, cfg.Background)
	if err != nil && !errors.Is(err, panel.ErrTemplateExists) {
		logrus.Fatal(err)
	}

	app := panel.NewServer(store, panel.Config{
		MediaDir:   cfg.MediaDir,
		CSRFCookie: config.Env.Editor.CSRFCookie,
		CSRFHeader: config.Env.Editor.CSRFHeader,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			logrus.Error(err)
		}
	}()

	path := "/api/templates/" + strconv.FormatInt(cfg.TemplateID, 10) + "/"
	ip, err := boardnet.GetOutgoingIP()
	if err != nil {
		ip = "localhost"
	}
	logrus.Info(fmt.Sprintf("panel started on http://%s:%d%s", ip, cfg.Port, path))

	ops := map[string]operation{
		"panel": func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	}

	if cfg.Advertise {
		server, err := boardnet.Advertise(config.Env.MDNS.Service, cfg.Port, path)
		if err != nil {
			logrus.WithError(err).Warn("panel will not be discoverable")
		} else {
			ops["mdns"] = func(ctx context.Context) error {
				return server.Shutdown()
			}
		}
	}

	<-gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)
}
