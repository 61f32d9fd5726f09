package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbePortsFindsListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port

	open := ProbePorts(context.Background(), "127.0.0.1", []int{port}, time.Second)
	assert.Equal(t, []int{port}, open)
}

func TestProbePortsClosedPortsReturnEmpty(t *testing.T) {
	// Ports in the dynamic range that nothing in the test environment
	// listens on.
	open := ProbePorts(context.Background(), "127.0.0.1", []int{59431, 59432, 59433}, 500*time.Millisecond)
	assert.Empty(t, open)
}

func TestProbePortsRunConcurrently(t *testing.T) {
	// A non-routable address makes every dial run out its full timeout.
	// With 8 ports at 400ms each, serial probing would need >3s; the
	// concurrent fan-out must finish close to a single timeout.
	timeout := 400 * time.Millisecond
	ports := []int{80, 443, 22, 23, 554, 3389, 9100, 8080}

	start := time.Now()
	open := ProbePorts(context.Background(), "10.255.255.1", ports, timeout)
	elapsed := time.Since(start)

	assert.Empty(t, open)
	assert.Less(t, elapsed, timeout*3, "probes must not run serially")
}

func TestProbePortsDefaults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled context: every dial fails immediately

	open := ProbePorts(ctx, "127.0.0.1", nil, 0)
	assert.Empty(t, open)
}
