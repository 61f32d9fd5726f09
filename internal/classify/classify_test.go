package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaidik343/voipscout/internal/deviceapi"
	"github.com/vaidik343/voipscout/internal/model"
)

func standardClassifier(probe Strategy) *Classifier {
	strategies := []Strategy{DeepScanStrategy{}, VendorStrategy{}, PortStrategy{}}
	if probe != nil {
		strategies = append(strategies, probe)
	}
	return New(strategies...)
}

func TestDeepScanBeatsVendorAndPorts(t *testing.T) {
	// Deep-scan text says camera, vendor maps to printer, ports say
	// IP phone: the deep-scan signature must win.
	d := &model.Device{
		IP:        "192.168.1.50",
		Vendor:    "Hewlett Packard",
		OpenPorts: []int{5060},
	}
	ev := Evidence{DeepScan: "80/tcp open http Hikvision IP camera httpd"}

	got := standardClassifier(nil).Classify(context.Background(), d, ev)
	assert.Equal(t, model.TypeCamera, got)
}

func TestDeepScanSignatures(t *testing.T) {
	cases := []struct {
		text string
		want model.DeviceType
	}{
		{"5060/tcp open sip Asterisk PBX 16.2", model.TypePBX},
		{"5060/tcp open sip Generic SIP endpoint", model.TypeIPPhone},
		{"Service Info: OS: RouterOS; Device: router", model.TypeRouter},
		{"9100/tcp open jetdirect", model.TypePrinter},
		{"3389/tcp open ms-wbt-server Microsoft Terminal Services", model.TypeComputer},
	}
	for _, tc := range cases {
		d := &model.Device{IP: "10.0.0.1"}
		got := standardClassifier(nil).Classify(context.Background(), d, Evidence{DeepScan: tc.text})
		assert.Equal(t, tc.want, got, "text %q", tc.text)
	}
}

func TestVendorBeatsPorts(t *testing.T) {
	d := &model.Device{
		IP:        "192.168.1.60",
		Vendor:    "Cisco",
		OpenPorts: []int{5060},
	}
	got := standardClassifier(nil).Classify(context.Background(), d, Evidence{})
	assert.Equal(t, model.TypeSwitch, got)
}

func TestPortSignatures(t *testing.T) {
	cases := []struct {
		ports []int
		want  model.DeviceType
	}{
		{[]int{5060}, model.TypeIPPhone},
		{[]int{554}, model.TypeCamera},
		{[]int{23}, model.TypeRouter},
		{[]int{9100}, model.TypePrinter},
		{[]int{80}, model.TypeCamera},
		{[]int{443}, model.TypeCamera},
		{nil, model.TypeUnknown},
	}
	for _, tc := range cases {
		d := &model.Device{IP: "10.0.0.2", Vendor: "Unknown", OpenPorts: tc.ports}
		got := standardClassifier(nil).Classify(context.Background(), d, Evidence{})
		assert.Equal(t, tc.want, got, "ports %v", tc.ports)
	}
}

func TestCredentialProbeFallbackToSpeaker(t *testing.T) {
	// A device with no deep scan, no vendor mapping and no matching
	// ports, but the target OUI. Only the speaker login succeeds, so
	// classification must land on Speaker.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pbx/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"no pbx here"}`))
		case "/api/login":
			w.Write([]byte(`{"data":{"token":"spk-tok"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	caches := map[model.Family]*deviceapi.TokenCache{
		model.FamilyPhone:   deviceapi.NewTokenCache(),
		model.FamilySpeaker: deviceapi.NewTokenCache(),
		model.FamilyPBX:     deviceapi.NewTokenCache(),
	}
	probe := NewCredentialProbeStrategy(nil, caches)

	ip := strings.TrimPrefix(srv.URL, "http://")
	d := &model.Device{
		IP:     ip,
		MAC:    "8C:1F:64:AA:BB:CC",
		Vendor: "Something Unmapped",
	}

	got := standardClassifier(probe).Classify(context.Background(), d, Evidence{})
	assert.Equal(t, model.TypeSpeaker, got)

	// The probe's token is cached for enrichment.
	token, ok := caches[model.FamilySpeaker].Get(ip)
	require.True(t, ok)
	assert.Equal(t, "spk-tok", token)
}

func TestCredentialProbeSkipsForeignMACs(t *testing.T) {
	probe := NewCredentialProbeStrategy(nil, map[model.Family]*deviceapi.TokenCache{})
	d := &model.Device{IP: "203.0.113.1", MAC: "00:00:0C:11:22:33", Vendor: "Nobody"}

	// Would hang on live logins if the OUI gate did not short-circuit;
	// 203.0.113.0/24 is reserved, nothing answers.
	got, ok := probe.Classify(context.Background(), d, Evidence{})
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestClassifyUnknownWhenEverythingPasses(t *testing.T) {
	d := &model.Device{IP: "10.0.0.3", MAC: "00:00:0C:99:99:99", Vendor: "Unknown"}
	got := standardClassifier(nil).Classify(context.Background(), d, Evidence{})
	assert.Equal(t, model.TypeUnknown, got)
}
