package probe

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/go-ping/ping"
)

// DefaultAliveTimeout bounds a single liveness probe.
const DefaultAliveTimeout = 2 * time.Second

// Pinger performs ICMP liveness checks. When raw sockets are unavailable it
// falls back to unprivileged UDP pings.
type Pinger struct {
	privileged bool
}

// NewPinger creates a new liveness prober.
func NewPinger() *Pinger {
	privileged := os.Geteuid() == 0 || canUseRawSocket()
	return &Pinger{privileged: privileged}
}

// Alive reports whether a host answers a single echo request within timeout.
// Transport errors are treated as "not alive", never propagated. The second
// return value is the round-trip time when alive.
func (p *Pinger) Alive(ctx context.Context, ip string, timeout time.Duration) (bool, time.Duration) {
	if timeout <= 0 {
		timeout = DefaultAliveTimeout
	}

	pinger, err := ping.NewPinger(ip)
	if err != nil {
		return false, 0
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(p.privileged)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		close(done)
		return false, 0
	}
	close(done)

	stats := pinger.Statistics()
	return stats.PacketsRecv > 0, stats.AvgRtt
}

// canUseRawSocket checks if we can use raw sockets
func canUseRawSocket() bool {
	conn, err := net.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
