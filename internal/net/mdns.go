package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

const DefaultServiceType = "_templateboard._tcp"

// Panel is a template API found on the local network.
type Panel struct {
	Instance string
	Addr     string
	Path     string
}

// Endpoint builds the template API URL for the panel.
func (p Panel) Endpoint() string {
	path := p.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("http://%s%s", p.Addr, path)
}

// Advertise announces a panel serving templates under path on port.
func Advertise(serviceType string, port int, path string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if serviceType == "" {
		serviceType = DefaultServiceType
	}

	ip, err := interfaceIPv4()
	if err != nil {
		return nil, fmt.Errorf("could not find a local address: %w", err)
	}

	info := []string{"TemplateBoard", "path=" + path}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, []net.IP{ip}, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logrus.WithFields(logrus.Fields{"service": serviceType, "port": port}).Info("advertising panel over mDNS")
	return server, nil
}

// Browse looks for panels until timeout elapses or ctx is done. The query
// is shortened to the ctx deadline, but a ctx cancelled without a deadline
// still waits for the running query to time out.
func Browse(ctx context.Context, serviceType string, timeout time.Duration) ([]Panel, error) {
	if serviceType == "" {
		serviceType = DefaultServiceType
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	var panels []Panel
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			panels = append(panels, Panel{
				Instance: e.Name,
				Addr:     fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port),
				Path:     infoValue(e.InfoFields, "path"),
			})
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = queryTimeout(ctx, timeout)
	params.DisableIPv6 = true

	errCh := make(chan error, 1)
	go func() { errCh <- mdns.Query(params) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
		// Query still owns entries; let it finish before closing
		<-errCh
	}
	close(entries)
	<-done
	return panels, err
}

// queryTimeout caps timeout at the time left before the ctx deadline.
func queryTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	left := time.Until(deadline)
	if left <= 0 {
		return time.Millisecond
	}
	if timeout <= 0 || left < timeout {
		return left
	}
	return timeout
}

func infoValue(fields []string, key string) string {
	for _, f := range fields {
		if k, v, ok := strings.Cut(f, "="); ok && k == key {
			return v
		}
	}
	return ""
}
