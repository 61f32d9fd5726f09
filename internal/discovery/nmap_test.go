package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNmapXML = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -sn -oX - 192.168.1.0/24" start="1700000000">
  <host>
    <status state="up" reason="arp-response"/>
    <address addr="192.168.1.50" addrtype="ipv4"/>
    <address addr="8c:1f:64:aa:bb:cc" addrtype="mac" vendor="Dasscom"/>
  </host>
  <host>
    <status state="up" reason="echo-reply"/>
    <address addr="192.168.1.77" addrtype="ipv4"/>
  </host>
  <host>
    <status state="down" reason="no-response"/>
    <address addr="192.168.1.99" addrtype="ipv4"/>
  </host>
  <runstats><finished time="1700000010"/></runstats>
</nmaprun>`

func TestParseNmapXML(t *testing.T) {
	neighbors, err := parseNmapXML([]byte(sampleNmapXML))
	require.NoError(t, err)
	require.Len(t, neighbors, 2)

	assert.Equal(t, "192.168.1.50", neighbors[0].IP)
	assert.Equal(t, "8C:1F:64:AA:BB:CC", neighbors[0].MAC)
	assert.Equal(t, "Dasscom", neighbors[0].Vendor)

	assert.Equal(t, "192.168.1.77", neighbors[1].IP)
	assert.Empty(t, neighbors[1].MAC)
}

func TestParseNmapXMLEmptyRun(t *testing.T) {
	neighbors, err := parseNmapXML([]byte(`<nmaprun></nmaprun>`))
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestParseNmapXMLMalformed(t *testing.T) {
	_, err := parseNmapXML([]byte("Starting Nmap 7.94 ( https://nmap.org )"))
	assert.Error(t, err)
}
