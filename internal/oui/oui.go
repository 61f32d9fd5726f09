// Package oui maps MAC address OUI prefixes to vendor names.
package oui

import "strings"

// DasscomOUI is the vendor prefix carried by Dasscom phones, speakers and
// PBX appliances. Discovery filtering and the credential-probe classifier
// key off this prefix.
const DasscomOUI = "8C:1F:64"

// UnknownVendor is returned when a MAC has no table entry.
const UnknownVendor = "Unknown"

// vendors is a static OUI prefix table. Prefixes are the first three octets
// in canonical form.
var vendors = map[string]string{
	DasscomOUI:  "Dasscom",
	"00:00:0C":  "Cisco",
	"00:1B:54":  "Cisco",
	"28:6F:7F":  "Cisco",
	"00:1E:0B":  "Hewlett Packard",
	"3C:D9:2B":  "Hewlett Packard",
	"94:57:A5":  "Hewlett Packard",
	"00:02:B3":  "Intel",
	"3C:A9:F4":  "Intel",
	"A0:36:9F":  "Intel",
	"00:04:F2":  "Polycom",
	"64:16:7F":  "Polycom",
	"00:15:65":  "Yealink",
	"80:5E:C0":  "Yealink",
	"00:0B:82":  "Grandstream",
	"C0:74:AD":  "Grandstream",
	"00:1F:54":  "Hikvision",
	"44:19:B6":  "Hikvision",
	"00:12:FB":  "Samsung",
	"B8:27:EB":  "Raspberry Pi Foundation",
	"DC:A6:32":  "Raspberry Pi Trading",
	"00:17:88":  "Philips",
	"F0:9F:C2":  "Ubiquiti",
	"74:AC:B9":  "Ubiquiti",
	"4C:5E:0C":  "MikroTik",
	"D4:CA:6D":  "MikroTik",
	"00:1A:A0":  "Dell",
	"F8:B1:56":  "Dell",
	"00:50:56":  "VMware",
	"00:15:5D":  "Microsoft",
	"AC:DE:48":  "Apple",
	"F0:18:98":  "Apple",
	"00:1D:AA":  "D-Link",
	"1C:7E:E5":  "D-Link",
	"00:14:6C":  "Netgear",
	"A0:40:A0":  "Netgear",
	"50:C7:BF":  "TP-Link",
	"EC:08:6B":  "TP-Link",
	"00:80:92":  "Brother",
	"00:00:48":  "Epson",
	"00:26:AB":  "Seiko Epson",
	"08:00:37":  "Fuji Xerox",
}

// NormalizeMac canonicalizes a MAC address to uppercase, colon-separated
// form. Returns "" for input that is not a MAC-shaped string.
func NormalizeMac(mac string) string {
	m := strings.ToUpper(strings.TrimSpace(mac))
	m = strings.ReplaceAll(m, "-", ":")
	if len(m) != 17 {
		return ""
	}
	for i, r := range m {
		if (i+1)%3 == 0 {
			if r != ':' {
				return ""
			}
			continue
		}
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return ""
		}
	}
	return m
}

// Prefix returns the first three octets of a normalized MAC, or "".
func Prefix(mac string) string {
	m := NormalizeMac(mac)
	if m == "" {
		return ""
	}
	return m[:8]
}

// HasPrefix reports whether mac, once normalized, starts with the given OUI
// prefix. The prefix is normalized the same way so separator and case do
// not matter on either side.
func HasPrefix(mac, prefix string) bool {
	m := NormalizeMac(mac)
	if m == "" {
		return false
	}
	p := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(prefix), "-", ":"))
	return strings.HasPrefix(m, p)
}

// LookupVendor resolves a MAC address to a vendor name. Pure table lookup,
// returns UnknownVendor when the prefix is not known.
func LookupVendor(mac string) string {
	p := Prefix(mac)
	if p == "" {
		return UnknownVendor
	}
	if v, ok := vendors[p]; ok {
		return v
	}
	return UnknownVendor
}
