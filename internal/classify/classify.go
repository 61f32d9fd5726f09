// Package classify assigns a device type from discovery metadata. The
// classifier is an ordered list of strategies; each one either produces a
// label or passes to the next. The precedence is fixed: deep-scan keywords,
// then vendor mapping, then port signatures, then credential probing, then
// Unknown.
package classify

import (
	"context"
	"strings"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/vaidik343/voipscout/internal/oui"
)

// Evidence is the optional per-device input gathered before classification.
type Evidence struct {
	// DeepScan is raw service/OS fingerprint text from the scan tool,
	// empty when no deep scan ran.
	DeepScan string
}

// Strategy is one classification attempt. A false return means "no match,
// try the next one" - strategies never abort the cascade.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, d *model.Device, ev Evidence) (model.DeviceType, bool)
}

// Classifier runs strategies in precedence order.
type Classifier struct {
	strategies []Strategy
}

func New(strategies ...Strategy) *Classifier {
	return &Classifier{strategies: strategies}
}

// Classify returns the first strategy's label, or Unknown when every
// strategy passes.
func (c *Classifier) Classify(ctx context.Context, d *model.Device, ev Evidence) model.DeviceType {
	for _, s := range c.strategies {
		if t, ok := s.Classify(ctx, d, ev); ok {
			log.Debug("Device classified", "ip", d.IP, "type", t, "strategy", s.Name())
			return t
		}
	}
	return model.TypeUnknown
}

// deepScanSignatures are checked in order; the first keyword found in the
// fingerprint text wins. PBX signatures come before the generic SIP/VoIP
// ones so a telephony platform is not mislabeled as a phone.
var deepScanSignatures = []struct {
	keyword string
	label   model.DeviceType
}{
	{"hikvision", model.TypeCamera},
	{"rtsp", model.TypeCamera},
	{"ipcam", model.TypeCamera},
	{"camera", model.TypeCamera},
	{"freepbx", model.TypePBX},
	{"asterisk", model.TypePBX},
	{"pbx", model.TypePBX},
	{"sip", model.TypeIPPhone},
	{"voip", model.TypeIPPhone},
	{"routeros", model.TypeRouter},
	{"mikrotik", model.TypeRouter},
	{"router", model.TypeRouter},
	{"switch", model.TypeSwitch},
	{"jetdirect", model.TypePrinter},
	{"printer", model.TypePrinter},
	{"ms-wbt-server", model.TypeComputer},
	{"terminal services", model.TypeComputer},
	{"openssh", model.TypeComputer},
	{"windows", model.TypeComputer},
}

// DeepScanStrategy matches device-family keywords in deep-scan output.
type DeepScanStrategy struct{}

func (DeepScanStrategy) Name() string { return "deep-scan" }

func (DeepScanStrategy) Classify(ctx context.Context, d *model.Device, ev Evidence) (model.DeviceType, bool) {
	if ev.DeepScan == "" {
		return "", false
	}
	text := strings.ToLower(ev.DeepScan)
	for _, sig := range deepScanSignatures {
		if strings.Contains(text, sig.keyword) {
			return sig.label, true
		}
	}
	return "", false
}

// vendorSignatures map vendor-name substrings to a device type.
var vendorSignatures = []struct {
	substr string
	label  model.DeviceType
}{
	{"dasscom", model.TypeIPPhone},
	{"polycom", model.TypeIPPhone},
	{"yealink", model.TypeIPPhone},
	{"grandstream", model.TypeIPPhone},
	{"cisco", model.TypeSwitch},
	{"hewlett", model.TypePrinter},
	{"brother", model.TypePrinter},
	{"epson", model.TypePrinter},
	{"xerox", model.TypePrinter},
	{"intel", model.TypeComputer},
	{"dell", model.TypeComputer},
	{"vmware", model.TypeComputer},
	{"microsoft", model.TypeComputer},
	{"apple", model.TypeComputer},
	{"raspberry", model.TypeComputer},
	{"hikvision", model.TypeCamera},
	{"mikrotik", model.TypeRouter},
	{"ubiquiti", model.TypeRouter},
	{"tp-link", model.TypeRouter},
	{"netgear", model.TypeRouter},
	{"d-link", model.TypeRouter},
}

// VendorStrategy maps the resolved vendor name to a type.
type VendorStrategy struct{}

func (VendorStrategy) Name() string { return "vendor" }

func (VendorStrategy) Classify(ctx context.Context, d *model.Device, ev Evidence) (model.DeviceType, bool) {
	v := strings.ToLower(d.Vendor)
	if v == "" || v == strings.ToLower(oui.UnknownVendor) {
		return "", false
	}
	for _, sig := range vendorSignatures {
		if strings.Contains(v, sig.substr) {
			return sig.label, true
		}
	}
	// "HP" needs a prefix match so it cannot fire inside other names.
	if strings.HasPrefix(v, "hp") {
		return model.TypePrinter, true
	}
	return "", false
}

// PortStrategy matches well-known service ports.
type PortStrategy struct{}

func (PortStrategy) Name() string { return "ports" }

func (PortStrategy) Classify(ctx context.Context, d *model.Device, ev Evidence) (model.DeviceType, bool) {
	ports := make(map[int]bool, len(d.OpenPorts))
	for _, p := range d.OpenPorts {
		ports[p] = true
	}
	switch {
	case ports[5060]:
		return model.TypeIPPhone, true
	case ports[554]:
		return model.TypeCamera, true
	case ports[23]:
		return model.TypeRouter, true
	case ports[9100]:
		return model.TypePrinter, true
	case ports[80] || ports[443]:
		// Web-managed device with nothing more specific to go on.
		return model.TypeCamera, true
	}
	return "", false
}
