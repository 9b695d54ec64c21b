package webui

import (
	"fmt"
	"net"
	"strconv"
)

// LocalIP returns the local IP the OS would use to reach the LAN. It dials
// the link-local all-hosts multicast address so no packet leaves the host.
func LocalIP() string {
	conn, err := net.Dial("udp4", net.JoinHostPort("224.0.0.1", "80"))
	if err != nil {
		return "0.0.0.0"
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.String()
}

// PreviewURL is the address other hosts on the LAN can open.
func PreviewURL(port int) string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(LocalIP(), strconv.Itoa(port)))
}
