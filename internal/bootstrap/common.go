package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"TemplateBoard/internal/config"
	boardnet "TemplateBoard/internal/net"

	"github.com/sirupsen/logrus"
)

type operation func(ctx context.Context) error

// gracefulShutdown waits for termination syscalls and doing clean up operations after received it.
func gracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)

		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		logrus.Info("shutting down")

		// set timeout for the ops to be done to prevent system hang
		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Error(fmt.Sprintf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds()))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		var wg sync.WaitGroup

		for key, op := range ops {
			wg.Add(1)
			go func() {
				defer wg.Done()

				logrus.Info(fmt.Sprintf("cleaning up: %s", key))
				if err := op(ctx); err != nil {
					logrus.Error(fmt.Sprintf("%s: clean up failed: %s", key, err.Error()))
					return
				}

				logrus.Info(fmt.Sprintf("%s was shutdown gracefully", key))
			}()
		}

		wg.Wait()

		close(wait)
	}()

	return wait
}

var errNoPanel = errors.New("no panel endpoint configured and none found over mDNS")

// resolveEndpoint returns the configured template endpoint, or the first
// panel answering on the local network.
func resolveEndpoint(ctx context.Context, endpoint string) (string, error) {
	if endpoint != "" {
		return endpoint, nil
	}

	logrus.WithField("service", config.Env.MDNS.Service).Info("no endpoint configured, browsing for panels")
	panels, err := boardnet.Browse(ctx, config.Env.MDNS.Service, config.Env.MDNS.BrowseTimeout)
	if err != nil {
		return "", fmt.Errorf("browse for panels: %w", err)
	}
	if len(panels) == 0 {
		return "", errNoPanel
	}
	if len(panels) > 1 {
		logrus.WithField("count", len(panels)).Warn("several panels found, using the first")
	}
	logrus.WithFields(logrus.Fields{"instance": panels[0].Instance, "endpoint": panels[0].Endpoint()}).Info("panel found")
	return panels[0].Endpoint(), nil
}

func newPanelClient(endpoint string) (*boardnet.Client, error) {
	cfg := config.Env.Editor
	return boardnet.NewClient(boardnet.ClientConfig{
		Endpoint:      endpoint,
		SessionCookie: cfg.SessionCookie,
		SessionID:     cfg.SessionID,
		CSRFCookie:    cfg.CSRFCookie,
		CSRFHeader:    cfg.CSRFHeader,
		CSRFToken:     cfg.CSRFToken,
		Timeout:       cfg.Timeout,
	})
}
