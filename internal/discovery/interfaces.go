package discovery

import (
	"errors"
	"fmt"
	"net"

	"github.com/vaidik343/voipscout/internal/model"
)

// ErrNoInterfaces is returned when no usable IPv4 interface exists. This is
// the hard-failure case for a discovery cycle.
var ErrNoInterfaces = errors.New("no suitable network interface found")

// Interfaces enumerates the host's active, non-loopback IPv4 interfaces.
// The snapshot is taken once per discovery run.
func Interfaces() ([]model.NetworkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerating interfaces: %w", err)
	}

	var result []model.NetworkInterface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			result = append(result, model.NetworkInterface{
				Name:    iface.Name,
				IP:      ipNet.IP.String(),
				Netmask: net.IP(ipNet.Mask).String(),
				CIDR:    ipNet.String(),
			})
		}
	}

	if len(result) == 0 {
		return nil, ErrNoInterfaces
	}
	return result, nil
}

// SubnetCIDR converts an explicit base IP + dotted netmask into the CIDR of
// the containing subnet.
func SubnetCIDR(ip, netmask string) (string, error) {
	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return "", fmt.Errorf("invalid IPv4 address %q", ip)
	}
	maskIP := net.ParseIP(netmask)
	if maskIP == nil || maskIP.To4() == nil {
		return "", fmt.Errorf("invalid netmask %q", netmask)
	}
	mask := net.IPMask(maskIP.To4())
	if ones, bits := mask.Size(); ones == 0 && bits == 0 {
		return "", fmt.Errorf("non-contiguous netmask %q", netmask)
	}
	network := addr.To4().Mask(mask)
	return (&net.IPNet{IP: network, Mask: mask}).String(), nil
}

// hostAddrs generates every host address in a CIDR, skipping the network
// and broadcast addresses for /30 and larger subnets.
func hostAddrs(cidr string) ([]string, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	ones, _ := ipNet.Mask.Size()
	broadcast := make(net.IP, len(ipNet.IP))
	copy(broadcast, ipNet.IP)
	for i := range ipNet.Mask {
		broadcast[i] |= ^ipNet.Mask[i]
	}

	var ips []string
	for ip := cloneIP(ipNet.IP.Mask(ipNet.Mask)); ipNet.Contains(ip); inc(ip) {
		if ones <= 30 {
			if ip.Equal(ipNet.IP.Mask(ipNet.Mask)) || ip.Equal(broadcast) {
				continue
			}
		}
		ips = append(ips, ip.String())
	}
	return ips, nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

// inc increments an IP address
func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
