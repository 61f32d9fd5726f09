package probe

import (
	"fmt"
	"net"

	"github.com/j-keck/arping"
)

// ResolveMAC sends an ARP request for ip and returns the answering MAC.
// Used when active-scan output carries no hardware address.
func ResolveMAC(ip string) (string, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return "", fmt.Errorf("invalid IP %q", ip)
	}
	mac, _, err := arping.Ping(addr)
	if err != nil {
		return "", fmt.Errorf("arping failed: %w", err)
	}
	return mac.String(), nil
}

// Hostname performs a reverse DNS lookup, returning "" when nothing
// resolves.
func Hostname(ip string) string {
	names, err := net.LookupAddr(ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
