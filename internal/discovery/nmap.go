package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/vaidik343/voipscout/internal/oui"
)

const (
	hostDiscoveryTimeout = 90 * time.Second
	deepScanTimeout      = 30 * time.Second
)

// deepScanArgs fingerprint the management, discovery and streaming ports.
var deepScanArgs = []string{
	"-sT", "-sV",
	"--script=http-title,http-headers,dns-service-discovery,snmp-info",
	"-p", "80,8080,443,1900,5353,161,554",
}

// NmapRunner invokes the external nmap binary for active host discovery and
// deep service scans.
type NmapRunner struct {
	// Path overrides binary lookup; empty means search $PATH.
	Path string
}

func NewNmapRunner(path string) *NmapRunner {
	return &NmapRunner{Path: path}
}

// locate resolves the nmap binary, preferring the configured path.
func (r *NmapRunner) locate() (string, error) {
	if r.Path != "" {
		return r.Path, nil
	}
	return exec.LookPath("nmap")
}

// Available reports whether the active-scan tool can be invoked at all.
func (r *NmapRunner) Available() bool {
	_, err := r.locate()
	return err == nil
}

// HostDiscovery runs a no-port host discovery scan (-sn) against a CIDR and
// parses the XML output into raw neighbor records. MAC and vendor are only
// present when nmap could read the ARP reply (same L2 segment, sufficient
// privilege).
func (r *NmapRunner) HostDiscovery(ctx context.Context, cidr string) ([]model.RawNeighbor, error) {
	path, err := r.locate()
	if err != nil {
		return nil, fmt.Errorf("nmap not available: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, hostDiscoveryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-sn", "-oX", "-", cidr).Output()
	if err != nil {
		return nil, fmt.Errorf("nmap host discovery for %s: %w", cidr, err)
	}

	neighbors, err := parseNmapXML(out)
	if err != nil {
		return nil, fmt.Errorf("parsing nmap output for %s: %w", cidr, err)
	}
	return neighbors, nil
}

// DeepScan runs a service/version fingerprint scan against one host and
// returns the raw text report for keyword classification.
func (r *NmapRunner) DeepScan(ctx context.Context, ip string) (string, error) {
	path, err := r.locate()
	if err != nil {
		return "", fmt.Errorf("nmap not available: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, deepScanTimeout)
	defer cancel()

	args := append(append([]string{}, deepScanArgs...), ip)
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", fmt.Errorf("nmap deep scan for %s: %w", ip, err)
	}

	log.Debug("Deep scan completed", "ip", ip, "bytes", len(out))
	return string(out), nil
}

// nmapRun mirrors the nmap XML report structure, limited to the fields host
// discovery needs.
type nmapRun struct {
	XMLName xml.Name   `xml:"nmaprun"`
	Hosts   []nmapHost `xml:"host"`
}

type nmapHost struct {
	Status    nmapStatus    `xml:"status"`
	Addresses []nmapAddress `xml:"address"`
}

type nmapStatus struct {
	State string `xml:"state,attr"`
}

type nmapAddress struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
	Vendor   string `xml:"vendor,attr"`
}

// parseNmapXML converts an XML report into raw neighbor records, keeping
// only hosts reported up.
func parseNmapXML(data []byte) ([]model.RawNeighbor, error) {
	var run nmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, err
	}

	var neighbors []model.RawNeighbor
	for _, host := range run.Hosts {
		if !strings.EqualFold(host.Status.State, "up") {
			continue
		}
		var n model.RawNeighbor
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				n.IP = addr.Addr
			case "mac":
				n.MAC = oui.NormalizeMac(addr.Addr)
				n.Vendor = addr.Vendor
			}
		}
		if n.IP == "" {
			continue
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}
