package model

import "time"

// SubnetSpec selects one explicit subnet, bypassing interface enumeration.
type SubnetSpec struct {
	IP      string `json:"ip"`
	Netmask string `json:"netmask"`
}

// ScanOptions selects the discovery strategy for one scan cycle.
type ScanOptions struct {
	// PreferActiveScan uses the external scan tool first, falling back to
	// the neighbor table when the tool is missing or finds nothing.
	PreferActiveScan bool `json:"prefer_active_scan"`

	// VendorFilter restricts results to MACs with the known vendor OUI.
	// When the filter leaves nothing but reachable hosts exist, the
	// unfiltered reachable hosts are returned instead.
	VendorFilter bool `json:"vendor_filter"`

	// Subnet, when set, scans only this subnet.
	Subnet *SubnetSpec `json:"subnet,omitempty"`
}

// ScanResult is the outcome of one discovery cycle. It supersedes the
// previous cycle wholesale; there is no incremental merge across scans.
type ScanResult struct {
	ID        string        `json:"id"`
	Strategy  string        `json:"strategy"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Devices   []Device      `json:"devices"`
}
