package probe

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"
)

// DefaultPorts is the well-known port set probed on every discovered host.
var DefaultPorts = []int{80, 443, 22, 23, 554, 3389, 9100}

// DefaultPortTimeout bounds each individual port connect attempt.
const DefaultPortTimeout = 400 * time.Millisecond

// ProbePorts checks which of the given ports accept TCP connections on ip.
// All probes run concurrently and each is bounded by perPortTimeout; a port
// that neither connects nor errors in time counts as closed. Individual
// failures are never surfaced - the result is always a (possibly empty)
// sorted list.
func ProbePorts(ctx context.Context, ip string, ports []int, perPortTimeout time.Duration) []int {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	if perPortTimeout <= 0 {
		perPortTimeout = DefaultPortTimeout
	}

	var openPorts []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	dialer := &net.Dialer{Timeout: perPortTimeout}

	for _, port := range ports {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()

			address := fmt.Sprintf("%s:%d", ip, p)
			conn, err := dialer.DialContext(ctx, "tcp", address)
			if err == nil {
				conn.Close()
				mu.Lock()
				openPorts = append(openPorts, p)
				mu.Unlock()
			}
		}(port)
	}

	wg.Wait()
	sort.Ints(openPorts)
	return openPorts
}
