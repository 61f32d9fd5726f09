package classify

import (
	"context"

	"github.com/vaidik343/voipscout/internal/deviceapi"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/vaidik343/voipscout/internal/oui"
)

// CredentialSource resolves login credentials for an IP, defaulting to
// admin/admin. Satisfied by the creds store.
type CredentialSource interface {
	GetOrDefault(ip string) (username, password string)
}

// ProbeTarget pairs a device-family client with the label a successful
// login implies. Tokens from successful probes are cached so enrichment
// does not log in twice.
type ProbeTarget struct {
	Client deviceapi.Client
	Label  model.DeviceType
	Cache  *deviceapi.TokenCache
}

// CredentialProbeStrategy is the last-resort classifier for devices
// carrying the target vendor's OUI: it attempts an authenticated login
// against each device family in fixed priority order (PBX, then Speaker,
// then generic Phone) and labels the device after the first family that
// accepts.
type CredentialProbeStrategy struct {
	OUIPrefix string
	Creds     CredentialSource
	Targets   []ProbeTarget
}

// NewCredentialProbeStrategy builds the standard PBX > Speaker > Phone
// probe order with one token cache per family.
func NewCredentialProbeStrategy(creds CredentialSource, caches map[model.Family]*deviceapi.TokenCache) *CredentialProbeStrategy {
	return &CredentialProbeStrategy{
		OUIPrefix: oui.DasscomOUI,
		Creds:     creds,
		Targets: []ProbeTarget{
			{Client: deviceapi.NewPBXClient(), Label: model.TypePBX, Cache: caches[model.FamilyPBX]},
			{Client: deviceapi.NewSpeakerClient(), Label: model.TypeSpeaker, Cache: caches[model.FamilySpeaker]},
			{Client: deviceapi.NewPhoneClient(), Label: model.TypeIPPhone, Cache: caches[model.FamilyPhone]},
		},
	}
}

func (s *CredentialProbeStrategy) Name() string { return "credential-probe" }

func (s *CredentialProbeStrategy) Classify(ctx context.Context, d *model.Device, ev Evidence) (model.DeviceType, bool) {
	if !oui.HasPrefix(d.MAC, s.OUIPrefix) {
		return "", false
	}

	username, password := deviceapi.DefaultUsername, deviceapi.DefaultPassword
	if s.Creds != nil {
		username, password = s.Creds.GetOrDefault(d.IP)
	}

	for _, target := range s.Targets {
		res := target.Client.Login(ctx, d.IP, username, password)
		if !res.OK {
			log.Debug("Credential probe rejected", "ip", d.IP, "family", target.Label)
			continue
		}
		if target.Cache != nil && res.Token != "" {
			target.Cache.Put(d.IP, res.Token)
		}
		return target.Label, true
	}
	return "", false
}
