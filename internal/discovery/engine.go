package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/vaidik343/voipscout/internal/oui"
	"github.com/vaidik343/voipscout/internal/probe"
)

// finishWorkers bounds concurrent per-device enrichment (port probes,
// hostname lookups) after the raw neighbor set is known.
const finishWorkers = 32

// ActiveScanner invokes the external active-discovery tool.
type ActiveScanner interface {
	Available() bool
	HostDiscovery(ctx context.Context, cidr string) ([]model.RawNeighbor, error)
}

// NeighborSource reads the OS neighbor table, optionally forcing population
// with a ping sweep first.
type NeighborSource interface {
	Read(ctx context.Context) (map[string][]model.RawNeighbor, error)
	Sweep(ctx context.Context, cidr string) []string
}

// Engine produces the device candidate list for the local network(s). One
// Engine serves many scan cycles; each cycle's result supersedes the last.
type Engine struct {
	active    ActiveScanner
	neighbors NeighborSource
	vendorOUI string

	// test seams, wired to the real implementations by NewEngine
	listIfaces func() ([]model.NetworkInterface, error)
	finishHost func(ctx context.Context, d *model.Device)
}

// NewEngine creates a discovery engine. active may be nil when no scan tool
// is available; the engine then always uses the neighbor table.
func NewEngine(active ActiveScanner, neighbors NeighborSource) *Engine {
	e := &Engine{
		active:     active,
		neighbors:  neighbors,
		vendorOUI:  oui.DasscomOUI,
		listIfaces: Interfaces,
	}
	e.finishHost = e.defaultFinishHost
	return e
}

// Discover runs one discovery cycle and returns the full device list.
// Per-subnet failures contribute zero devices without aborting the scan;
// only the total-failure cases (no interfaces, or every strategy failed with
// nothing to show) surface as an error.
func (e *Engine) Discover(ctx context.Context, opts model.ScanOptions) (*model.ScanResult, error) {
	started := time.Now()

	cidrs, err := e.subnets(opts)
	if err != nil {
		return nil, err
	}
	log.Info("Starting discovery scan", "subnets", cidrs, "active", opts.PreferActiveScan, "filter", opts.VendorFilter)

	strategy := "neighbor"
	var raw []model.RawNeighbor

	if opts.PreferActiveScan && e.active != nil && e.active.Available() {
		strategy = "active"
		raw = e.activeScan(ctx, cidrs)
		if len(raw) == 0 {
			// Zero-result active scans always fall back to the
			// neighbor table.
			log.Info("Active scan found no hosts, falling back to neighbor table")
			strategy = "neighbor"
			raw, err = e.neighborScan(ctx, cidrs)
			if err != nil {
				return nil, fmt.Errorf("active scan empty and neighbor table unavailable: %w", err)
			}
		}
	} else {
		raw, err = e.neighborScan(ctx, cidrs)
		if err != nil {
			return nil, err
		}
	}

	candidates := dedupeByMAC(raw)

	if opts.VendorFilter {
		filtered := make([]model.RawNeighbor, 0, len(candidates))
		for _, n := range candidates {
			if oui.HasPrefix(n.MAC, e.vendorOUI) {
				filtered = append(filtered, n)
			}
		}
		if len(filtered) == 0 && len(candidates) > 0 {
			// Reachability is preserved over strict filtering:
			// better to show unidentified hosts than nothing.
			log.Info("Vendor filter matched nothing, keeping reachable hosts", "hosts", len(candidates))
		} else {
			candidates = filtered
		}
	}

	devices := e.finish(ctx, candidates)

	result := &model.ScanResult{
		ID:        newScanID(),
		Strategy:  strategy,
		StartedAt: started,
		Duration:  time.Since(started),
		Devices:   devices,
	}
	log.Info("Discovery scan completed", "scan_id", result.ID, "strategy", strategy, "devices", len(devices), "duration", result.Duration)
	return result, nil
}

// subnets resolves the CIDR list for this cycle: the explicit subnet when
// given, otherwise every local interface subnet.
func (e *Engine) subnets(opts model.ScanOptions) ([]string, error) {
	if opts.Subnet != nil {
		cidr, err := SubnetCIDR(opts.Subnet.IP, opts.Subnet.Netmask)
		if err != nil {
			return nil, fmt.Errorf("explicit subnet: %w", err)
		}
		return []string{cidr}, nil
	}

	ifaces, err := e.listIfaces()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var cidrs []string
	for _, iface := range ifaces {
		if !seen[iface.CIDR] {
			seen[iface.CIDR] = true
			cidrs = append(cidrs, iface.CIDR)
		}
	}
	return cidrs, nil
}

// activeScan runs the scan tool against every subnet in parallel. A failed
// subnet contributes nothing but never aborts the cycle.
func (e *Engine) activeScan(ctx context.Context, cidrs []string) []model.RawNeighbor {
	var raw []model.RawNeighbor
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, cidr := range cidrs {
		wg.Add(1)
		go func(cidr string) {
			defer wg.Done()
			neighbors, err := e.active.HostDiscovery(ctx, cidr)
			if err != nil {
				log.Warn("Active scan failed for subnet", "cidr", cidr, "error", err)
				return
			}
			log.Debug("Active scan finished for subnet", "cidr", cidr, "hosts", len(neighbors))
			mu.Lock()
			raw = append(raw, neighbors...)
			mu.Unlock()
		}(cidr)
	}
	wg.Wait()
	return raw
}

// neighborScan sweeps every subnet to force neighbor-table population, then
// reads the table once.
func (e *Engine) neighborScan(ctx context.Context, cidrs []string) ([]model.RawNeighbor, error) {
	var wg sync.WaitGroup
	for _, cidr := range cidrs {
		wg.Add(1)
		go func(cidr string) {
			defer wg.Done()
			e.neighbors.Sweep(ctx, cidr)
		}(cidr)
	}
	wg.Wait()

	table, err := e.neighbors.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading neighbor table: %w", err)
	}

	var raw []model.RawNeighbor
	for iface, entries := range table {
		log.Debug("Neighbor table entries", "interface", iface, "count", len(entries))
		raw = append(raw, entries...)
	}
	return raw, nil
}

// dedupeByMAC collapses duplicate records by normalized MAC, last seen wins.
// Records without a MAC are kept keyed by IP.
func dedupeByMAC(raw []model.RawNeighbor) []model.RawNeighbor {
	index := make(map[string]int)
	var out []model.RawNeighbor

	for _, n := range raw {
		key := oui.NormalizeMac(n.MAC)
		if key == "" {
			key = "ip:" + n.IP
		}
		n.MAC = oui.NormalizeMac(n.MAC)
		if i, ok := index[key]; ok {
			out[i] = n
			continue
		}
		index[key] = len(out)
		out = append(out, n)
	}
	return out
}

// finish concurrently turns raw neighbor records into Device values.
func (e *Engine) finish(ctx context.Context, candidates []model.RawNeighbor) []model.Device {
	devices := make([]model.Device, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, finishWorkers)

	for i, n := range candidates {
		wg.Add(1)
		go func(i int, n model.RawNeighbor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vendor := n.Vendor
			if vendor == "" {
				vendor = oui.LookupVendor(n.MAC)
			}
			d := model.Device{
				IP:     n.IP,
				MAC:    n.MAC,
				Vendor: vendor,
				Type:   model.TypeUnknown,
				// A neighbor record implies recent reachability.
				Online: true,
			}
			e.finishHost(ctx, &d)
			devices[i] = d
		}(i, n)
	}
	wg.Wait()

	sort.Slice(devices, func(a, b int) bool { return devices[a].IP < devices[b].IP })
	return devices
}

// defaultFinishHost probes ports, measures liveness and resolves names for
// one device. Every sub-probe is fire-and-forget; failures leave the field
// empty.
func (e *Engine) defaultFinishHost(ctx context.Context, d *model.Device) {
	d.OpenPorts = probe.ProbePorts(ctx, d.IP, nil, 0)

	pinger := probe.NewPinger()
	if alive, rtt := pinger.Alive(ctx, d.IP, 0); alive {
		ms := rtt.Milliseconds()
		d.ResponseTimeMs = &ms
	}

	if d.MAC == "" {
		if mac, err := probe.ResolveMAC(d.IP); err == nil {
			d.MAC = oui.NormalizeMac(mac)
			if d.Vendor == "" || d.Vendor == oui.UnknownVendor {
				d.Vendor = oui.LookupVendor(d.MAC)
			}
		}
	}

	d.Hostname = probe.Hostname(d.IP)
}

func newScanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
