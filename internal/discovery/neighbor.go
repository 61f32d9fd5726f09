package discovery

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/vaidik343/voipscout/internal/oui"
	"github.com/vaidik343/voipscout/internal/probe"
)

const (
	// sweepWorkers bounds concurrent sweep pings so the sweep cannot
	// exhaust the host's socket budget.
	sweepWorkers = 64

	sweepPingTimeout = 2 * time.Second

	// settleDelay gives the OS neighbor table time to absorb ARP replies
	// triggered by the sweep before it is read back.
	settleDelay = 3 * time.Second
)

// NeighborTable reads and parses the OS neighbor/ARP table. The table can
// be force-populated by a prior ping sweep.
type NeighborTable struct {
	pinger *probe.Pinger
}

func NewNeighborTable() *NeighborTable {
	return &NeighborTable{pinger: probe.NewPinger()}
}

// Read returns the current neighbor entries grouped per interface. Only
// resolved (dynamic/static/reachable-class) entries are included.
func (nt *NeighborTable) Read(ctx context.Context) (map[string][]model.RawNeighbor, error) {
	if runtime.GOOS == "windows" {
		out, err := exec.CommandContext(ctx, "arp", "-a").Output()
		if err != nil {
			return nil, fmt.Errorf("reading ARP table: %w", err)
		}
		return ParseWindowsARP(string(out)), nil
	}

	// ip neigh is the modern interface; arp -n remains for hosts without
	// iproute2.
	if out, err := exec.CommandContext(ctx, "ip", "neigh").Output(); err == nil {
		return ParseIPNeigh(string(out)), nil
	}

	out, err := exec.CommandContext(ctx, "arp", "-n").Output()
	if err != nil {
		return nil, fmt.Errorf("reading ARP table: %w", err)
	}
	return ParseUnixARP(string(out)), nil
}

// Sweep pings every host address in the subnet through a bounded worker
// pool, forcing neighbor-table population, then waits for the table to
// settle. Returns the addresses that answered.
func (nt *NeighborTable) Sweep(ctx context.Context, cidr string) []string {
	ips, err := hostAddrs(cidr)
	if err != nil {
		log.Warn("Ping sweep skipped, bad CIDR", "cidr", cidr, "error", err)
		return nil
	}

	var alive []string
	var mu sync.Mutex
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(sweepWorkers, func(arg interface{}) {
		defer wg.Done()
		ip := arg.(string)
		if ok, _ := nt.pinger.Alive(ctx, ip, sweepPingTimeout); ok {
			mu.Lock()
			alive = append(alive, ip)
			mu.Unlock()
		}
	})
	if err != nil {
		log.Error("Ping sweep pool creation failed", "error", err)
		return nil
	}
	defer pool.Release()

	for _, ip := range ips {
		wg.Add(1)
		if err := pool.Invoke(ip); err != nil {
			wg.Done()
		}
	}
	wg.Wait()

	log.Info("Ping sweep completed", "cidr", cidr, "alive", len(alive))

	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
	}
	return alive
}

var (
	winInterfaceRe = regexp.MustCompile(`^Interface:\s+(\d+\.\d+\.\d+\.\d+)`)
	winEntryRe     = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)\s+([a-fA-F0-9:-]+)\s+(\w+)`)
	unixARPRe      = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)\s+\w+\s+([a-fA-F0-9:]+)\s+\S+\s+(\S+)`)
	ipNeighRe      = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)\s+dev\s+(\S+)\s+lladdr\s+([a-fA-F0-9:]+)\s+.*?(\S+)$`)
)

// ParseWindowsARP parses `arp -a` output: sections per interface with
// ip/mac/type columns. Only dynamic and static entries count.
func ParseWindowsARP(output string) map[string][]model.RawNeighbor {
	result := make(map[string][]model.RawNeighbor)
	current := ""

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := winInterfaceRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		m := winEntryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entryType := strings.ToLower(m[3])
		if entryType != "dynamic" && entryType != "static" {
			continue
		}
		mac := oui.NormalizeMac(m[2])
		if mac == "" {
			continue
		}
		result[current] = append(result[current], model.RawNeighbor{
			IP:     m[1],
			MAC:    mac,
			Vendor: oui.LookupVendor(mac),
		})
	}
	return result
}

// ParseUnixARP parses `arp -n` output: address/hwtype/hwaddress/flags/iface
// columns, no explicit entry state beyond presence.
func ParseUnixARP(output string) map[string][]model.RawNeighbor {
	result := make(map[string][]model.RawNeighbor)

	for _, line := range strings.Split(output, "\n") {
		m := unixARPRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		mac := oui.NormalizeMac(m[2])
		if mac == "" {
			continue
		}
		iface := m[3]
		result[iface] = append(result[iface], model.RawNeighbor{
			IP:     m[1],
			MAC:    mac,
			Vendor: oui.LookupVendor(mac),
		})
	}
	return result
}

// validNeighStates are the `ip neigh` states that count as resolved.
var validNeighStates = map[string]bool{
	"REACHABLE": true,
	"STALE":     true,
	"DELAY":     true,
	"PROBE":     true,
	"PERMANENT": true,
}

// ParseIPNeigh parses `ip neigh` output, keeping only resolved entries.
func ParseIPNeigh(output string) map[string][]model.RawNeighbor {
	result := make(map[string][]model.RawNeighbor)

	for _, line := range strings.Split(output, "\n") {
		m := ipNeighRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if !validNeighStates[strings.ToUpper(m[4])] {
			continue
		}
		mac := oui.NormalizeMac(m[3])
		if mac == "" {
			continue
		}
		iface := m[2]
		result[iface] = append(result[iface], model.RawNeighbor{
			IP:     m[1],
			MAC:    mac,
			Vendor: oui.LookupVendor(mac),
		})
	}
	return result
}
