package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaidik343/voipscout/internal/model"
)

type fakeActive struct {
	available bool
	results   map[string][]model.RawNeighbor
	err       error
}

func (f *fakeActive) Available() bool { return f.available }

func (f *fakeActive) HostDiscovery(ctx context.Context, cidr string) ([]model.RawNeighbor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[cidr], nil
}

type fakeNeighbors struct {
	mu    sync.Mutex
	table map[string][]model.RawNeighbor
	err   error
	swept []string
}

func (f *fakeNeighbors) Read(ctx context.Context) (map[string][]model.RawNeighbor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeNeighbors) Sweep(ctx context.Context, cidr string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept = append(f.swept, cidr)
	return nil
}

func newTestEngine(active ActiveScanner, neighbors NeighborSource) *Engine {
	e := NewEngine(active, neighbors)
	e.listIfaces = func() ([]model.NetworkInterface, error) {
		return []model.NetworkInterface{
			{Name: "eth0", IP: "192.168.1.10", Netmask: "255.255.255.0", CIDR: "192.168.1.0/24"},
		}, nil
	}
	// No real network I/O in tests.
	e.finishHost = func(ctx context.Context, d *model.Device) {}
	return e
}

func TestDiscoverActiveScanEndToEnd(t *testing.T) {
	active := &fakeActive{
		available: true,
		results: map[string][]model.RawNeighbor{
			"192.168.1.0/24": {
				{IP: "192.168.1.50", MAC: "8c:1f:64:aa:bb:cc"},
				{IP: "192.168.1.80", MAC: "00:00:0c:11:22:33"},
			},
		},
	}
	engine := newTestEngine(active, &fakeNeighbors{})

	result, err := engine.Discover(context.Background(), model.ScanOptions{
		PreferActiveScan: true,
		VendorFilter:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "active", result.Strategy)
	assert.NotEmpty(t, result.ID)

	require.Len(t, result.Devices, 1)
	d := result.Devices[0]
	assert.Equal(t, "192.168.1.50", d.IP)
	assert.Equal(t, "8C:1F:64:AA:BB:CC", d.MAC)
	assert.Equal(t, "Dasscom", d.Vendor)
	assert.Equal(t, model.TypeUnknown, d.Type)
	assert.True(t, d.Online)
}

func TestDiscoverFallsBackOnEmptyActiveScan(t *testing.T) {
	active := &fakeActive{available: true} // zero records for every subnet
	neighbors := &fakeNeighbors{
		table: map[string][]model.RawNeighbor{
			"eth0": {{IP: "192.168.1.50", MAC: "8C:1F:64:AA:BB:CC", Vendor: "Dasscom"}},
		},
	}
	engine := newTestEngine(active, neighbors)

	result, err := engine.Discover(context.Background(), model.ScanOptions{PreferActiveScan: true})
	require.NoError(t, err)
	assert.Equal(t, "neighbor", result.Strategy)
	assert.Contains(t, neighbors.swept, "192.168.1.0/24")
	require.Len(t, result.Devices, 1)
	assert.Equal(t, "192.168.1.50", result.Devices[0].IP)
}

func TestDiscoverActiveToolUnavailableUsesNeighbors(t *testing.T) {
	neighbors := &fakeNeighbors{
		table: map[string][]model.RawNeighbor{
			"eth0": {{IP: "192.168.1.20", MAC: "00:00:0C:11:22:33", Vendor: "Cisco"}},
		},
	}
	engine := newTestEngine(&fakeActive{available: false}, neighbors)

	result, err := engine.Discover(context.Background(), model.ScanOptions{PreferActiveScan: true})
	require.NoError(t, err)
	assert.Equal(t, "neighbor", result.Strategy)
	require.Len(t, result.Devices, 1)
}

func TestDiscoverVendorFilterKeepsReachableHosts(t *testing.T) {
	active := &fakeActive{
		available: true,
		results: map[string][]model.RawNeighbor{
			"192.168.1.0/24": {
				{IP: "192.168.1.80", MAC: "00:00:0C:11:22:33"},
				{IP: "192.168.1.81", MAC: "50:C7:BF:01:02:03"},
			},
		},
	}
	engine := newTestEngine(active, &fakeNeighbors{})

	// No Dasscom MACs at all: the filter would empty the set, so the
	// reachable hosts are returned unfiltered.
	result, err := engine.Discover(context.Background(), model.ScanOptions{
		PreferActiveScan: true,
		VendorFilter:     true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Devices, 2)
}

func TestDiscoverDeduplicatesByMAC(t *testing.T) {
	active := &fakeActive{
		available: true,
		results: map[string][]model.RawNeighbor{
			"192.168.1.0/24": {
				{IP: "192.168.1.50", MAC: "8c:1f:64:aa:bb:cc"},
				{IP: "192.168.1.51", MAC: "8C-1F-64-AA-BB-CC"}, // same MAC, last wins
				{IP: "192.168.1.60"},                           // no MAC, kept by IP
			},
		},
	}
	engine := newTestEngine(active, &fakeNeighbors{})

	result, err := engine.Discover(context.Background(), model.ScanOptions{PreferActiveScan: true})
	require.NoError(t, err)
	require.Len(t, result.Devices, 2)

	byIP := map[string]model.Device{}
	for _, d := range result.Devices {
		byIP[d.IP] = d
	}
	assert.Contains(t, byIP, "192.168.1.51")
	assert.NotContains(t, byIP, "192.168.1.50")
	assert.Contains(t, byIP, "192.168.1.60")
}

func TestDiscoverExplicitSubnetSkipsInterfaceEnumeration(t *testing.T) {
	neighbors := &fakeNeighbors{table: map[string][]model.RawNeighbor{}}
	engine := newTestEngine(&fakeActive{}, neighbors)
	engine.listIfaces = func() ([]model.NetworkInterface, error) {
		t.Fatal("interface enumeration must be skipped in explicit subnet mode")
		return nil, nil
	}

	_, err := engine.Discover(context.Background(), model.ScanOptions{
		Subnet: &model.SubnetSpec{IP: "10.1.2.3", Netmask: "255.255.255.0"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.2.0/24"}, neighbors.swept)
}

func TestDiscoverNoInterfacesIsFatal(t *testing.T) {
	engine := newTestEngine(&fakeActive{}, &fakeNeighbors{})
	engine.listIfaces = func() ([]model.NetworkInterface, error) {
		return nil, ErrNoInterfaces
	}

	_, err := engine.Discover(context.Background(), model.ScanOptions{})
	assert.ErrorIs(t, err, ErrNoInterfaces)
}

func TestDiscoverTotalFailure(t *testing.T) {
	// Active scan empty and the neighbor table unreadable: this cycle
	// has nothing to offer and must surface a hard error.
	engine := newTestEngine(
		&fakeActive{available: true},
		&fakeNeighbors{err: errors.New("arp: command not found")},
	)

	_, err := engine.Discover(context.Background(), model.ScanOptions{PreferActiveScan: true})
	assert.Error(t, err)
}
