package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowsARPOutput = `
Interface: 192.168.1.10 --- 0xb
  Internet Address      Physical Address      Type
  192.168.1.1           00-00-0c-11-22-33     dynamic
  192.168.1.50          8c-1f-64-aa-bb-cc     dynamic
  192.168.1.254         ff-ff-ff-ff-ff-ff     static
  224.0.0.22            01-00-5e-00-00-16     static
  192.168.1.77          98-76-54-32-10-ff     invalid

Interface: 10.0.0.5 --- 0xc
  Internet Address      Physical Address      Type
  10.0.0.1              50-c7-bf-01-02-03     dynamic
`

func TestParseWindowsARP(t *testing.T) {
	table := ParseWindowsARP(windowsARPOutput)
	require.Len(t, table, 2)

	first := table["192.168.1.10"]
	require.Len(t, first, 4)
	assert.Equal(t, "192.168.1.1", first[0].IP)
	assert.Equal(t, "00:00:0C:11:22:33", first[0].MAC)
	assert.Equal(t, "Cisco", first[0].Vendor)
	assert.Equal(t, "8C:1F:64:AA:BB:CC", first[1].MAC)
	assert.Equal(t, "Dasscom", first[1].Vendor)

	second := table["10.0.0.5"]
	require.Len(t, second, 1)
	assert.Equal(t, "TP-Link", second[0].Vendor)
}

const unixARPOutput = `Address                  HWtype  HWaddress           Flags Mask            Iface
192.168.1.1              ether   00:00:0c:11:22:33   C                     eth0
192.168.1.50             ether   8c:1f:64:aa:bb:cc   C                     eth0
192.168.1.60                     (incomplete)                              eth0
`

func TestParseUnixARP(t *testing.T) {
	table := ParseUnixARP(unixARPOutput)
	require.Len(t, table, 1)

	entries := table["eth0"]
	require.Len(t, entries, 2)
	assert.Equal(t, "192.168.1.50", entries[1].IP)
	assert.Equal(t, "8C:1F:64:AA:BB:CC", entries[1].MAC)
}

const ipNeighOutput = `192.168.1.1 dev eth0 lladdr 00:00:0c:11:22:33 REACHABLE
192.168.1.50 dev eth0 lladdr 8c:1f:64:aa:bb:cc STALE
192.168.1.60 dev eth0  FAILED
192.168.1.70 dev eth0 lladdr aa:bb:cc:dd:ee:ff INCOMPLETE
10.0.0.9 dev wlan0 lladdr 50:c7:bf:01:02:03 PERMANENT
`

func TestParseIPNeigh(t *testing.T) {
	table := ParseIPNeigh(ipNeighOutput)
	require.Len(t, table, 2)

	eth0 := table["eth0"]
	require.Len(t, eth0, 2, "FAILED and INCOMPLETE entries must be dropped")
	assert.Equal(t, "8C:1F:64:AA:BB:CC", eth0[1].MAC)

	wlan0 := table["wlan0"]
	require.Len(t, wlan0, 1)
	assert.Equal(t, "10.0.0.9", wlan0[0].IP)
}

func TestHostAddrs(t *testing.T) {
	ips, err := hostAddrs("192.168.1.0/30")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.2"}, ips)

	ips, err = hostAddrs("192.168.1.0/24")
	require.NoError(t, err)
	assert.Len(t, ips, 254)
	assert.Equal(t, "192.168.1.1", ips[0])
	assert.Equal(t, "192.168.1.254", ips[len(ips)-1])

	_, err = hostAddrs("not-a-cidr")
	assert.Error(t, err)
}

func TestSubnetCIDR(t *testing.T) {
	cidr, err := SubnetCIDR("192.168.1.17", "255.255.255.0")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", cidr)

	_, err = SubnetCIDR("bogus", "255.255.255.0")
	assert.Error(t, err)

	_, err = SubnetCIDR("192.168.1.17", "bogus")
	assert.Error(t, err)
}
