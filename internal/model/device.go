package model

import (
	"encoding/json"
	"time"
)

// DeviceType is the closed set of classification labels.
type DeviceType string

const (
	TypeIPPhone  DeviceType = "IP Phone"
	TypeSpeaker  DeviceType = "Speaker"
	TypePBX      DeviceType = "PBX"
	TypeCamera   DeviceType = "Camera"
	TypeRouter   DeviceType = "Router"
	TypeSwitch   DeviceType = "Switch"
	TypePrinter  DeviceType = "Printer"
	TypeComputer DeviceType = "Computer"
	TypeUnknown  DeviceType = "Unknown"
)

// Family selects which device API client handles a device.
type Family int

const (
	FamilyPhone Family = iota
	FamilySpeaker
	FamilyPBX
)

// FamilyForType maps a classification label to its API client family.
// Everything that is not a speaker or PBX uses the generic phone surface.
func FamilyForType(t DeviceType) Family {
	switch t {
	case TypeSpeaker:
		return FamilySpeaker
	case TypePBX:
		return FamilyPBX
	default:
		return FamilyPhone
	}
}

// Device is one reachable host found by a discovery scan. A device is valid
// and displayable without Info; Info is attached only by enrichment.
type Device struct {
	IP             string                     `json:"ip"`
	MAC            string                     `json:"mac,omitempty"`
	Vendor         string                     `json:"vendor"`
	Type           DeviceType                 `json:"type"`
	Online         bool                       `json:"online"`
	OpenPorts      []int                      `json:"open_ports"`
	ResponseTimeMs *int64                     `json:"response_time_ms,omitempty"`
	Hostname       string                     `json:"hostname,omitempty"`
	Info           map[string]json.RawMessage `json:"info,omitempty"`
}

// RawNeighbor is an unenriched neighbor record from ARP or active-scan
// parsing. MAC is normalized before records are merged.
type RawNeighbor struct {
	IP     string `json:"ip"`
	MAC    string `json:"mac,omitempty"`
	Vendor string `json:"vendor,omitempty"`
}

// NetworkInterface is a read-only snapshot of one active, non-loopback IPv4
// interface, taken once per discovery run.
type NetworkInterface struct {
	Name    string `json:"name"`
	IP      string `json:"ip"`
	Netmask string `json:"netmask"`
	CIDR    string `json:"cidr"`
}

// Credential holds login details for one device IP.
type Credential struct {
	IP          string    `json:"ip"`
	Username    string    `json:"username"`
	Password    string    `json:"password,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}
