package bootstrap

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"TemplateBoard/internal/config"
	boardnet "TemplateBoard/internal/net"
	"TemplateBoard/internal/util"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartDiscover(cmd *cobra.Command, args []string) {
	panels, err := boardnet.Browse(context.Background(), config.Env.MDNS.Service, config.Env.MDNS.BrowseTimeout)
	util.ContinueOrFatal(err)

	if len(panels) == 0 {
		logrus.Info("no panels found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSTANCE\tENDPOINT")
	for _, p := range panels {
		fmt.Fprintf(w, "%s\t%s\n", p.Instance, p.Endpoint())
	}
	_ = w.Flush()
}
