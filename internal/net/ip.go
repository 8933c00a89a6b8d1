package net

import (
	"net"

	"github.com/sirupsen/logrus"
)

// GetOutgoingIP returns the address other machines should use to reach the
// dev panel: the source address of the default route, or the first IPv4
// address on an interface that is up.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP.To4() != nil {
			return addr.IP.String(), nil
		}
	}

	ip, err := interfaceIPv4()
	if err != nil {
		return "", err
	}
	return ip.String(), nil
}

// interfaceIPv4 scans the interfaces that are up for a non-loopback IPv4
// address and falls back to loopback when there is none. The same address
// is used in mDNS answers.
func interfaceIPv4() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	if ip := pickIPv4(ifaces, func(iface net.Interface) ([]net.Addr, error) { return iface.Addrs() }); ip != nil {
		return ip, nil
	}
	logrus.Warn("no suitable local IP found, using loopback")
	return net.IPv4(127, 0, 0, 1).To4(), nil
}

func pickIPv4(ifaces []net.Interface, addrs func(net.Interface) ([]net.Addr, error)) net.IP {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		list, err := addrs(iface)
		if err != nil {
			continue
		}
		for _, a := range list {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return nil
}
