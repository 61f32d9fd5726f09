// Package enrich fans out to a classified device's full endpoint set and
// assembles whatever succeeds. Partial success is the contract: one
// unreachable or unsupported endpoint never costs the caller the rest.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vaidik343/voipscout/internal/deviceapi"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// ErrLoginFailed is returned when a family whose API requires a session
// (speaker, PBX) rejects every login attempt.
var ErrLoginFailed = errors.New("device login failed")

// reloginBackoff is the pause before the single re-login retry after a
// stale-token failure.
const reloginBackoff = 200 * time.Millisecond

// endpoint binds a logical info-blob field name to a device endpoint path.
type endpoint struct {
	field string
	path  string
}

// speakerEndpoints is the fixed read-only set queried on SIP speakers.
var speakerEndpoints = []endpoint{
	{"systemInfo", "/api/get-system-info"},
	{"volumePriority", "/api/get-volume-priority"},
	{"provisioning", "/api/get-privisioning"},
	{"sipSlave1Info", "/api/get-sip-slave1-info"},
	{"sipSlave2Info", "/api/get-sip-slave2-info"},
	{"functionInfo", "/api/get-sip-function-info"},
	{"masterInfo", "/api/get-sip-master-info"},
	{"advanceInfo", "/api/get-sip-advance-info"},
	{"sip", "/api/get-sipapi"},
	{"language", "/api/get-language"},
	{"audio", "/api/get-audio-codec"},
	{"network", "/api/get-network-info"},
}

// phoneEndpoints is the fixed read-only set queried on generic IP phones.
var phoneEndpoints = []endpoint{
	{"systemInfo", "/action/system-info"},
	{"svnVersion", "/action/svn-version"},
	{"ipAddress", "/action/ip-address"},
	{"dns", "/action/dns"},
	{"gateway", "/action/gateway"},
	{"netmask", "/action/netmask"},
	{"accountStatus", "/action/account-status"},
	{"callStatus", "/action/call-status"},
	{"temperature", "/action/temperature"},
	{"accountInfo", "/action/account-info"},
	{"allAccountInfo", "/action/all-account-info"},
}

// pbxEndpoints is the fixed system/extension info set queried on PBX
// appliances.
var pbxEndpoints = []endpoint{
	{"currentTime", "/pbx/systeminfo/system-current-time"},
	{"version", "/pbx/systeminfo/version"},
	{"cpu", "/pbx/systeminfo/cpu"},
	{"mem", "/pbx/systeminfo/mem"},
	{"disk", "/pbx/systeminfo/disk"},
	{"calls", "/pbx/systeminfo/calls"},
	{"extensionStatus", "/pbx/systeminfo/extension-status"},
	{"trunkInfo", "/pbx/systeminfo/trunk-info"},
}

// CredentialSource resolves login credentials for an IP.
type CredentialSource interface {
	GetOrDefault(ip string) (username, password string)
}

// Orchestrator owns the per-family clients and token caches and performs
// the enrichment fan-out.
type Orchestrator struct {
	clients map[model.Family]deviceapi.Client
	caches  map[model.Family]*deviceapi.TokenCache
	creds   CredentialSource
}

// NewOrchestrator creates an orchestrator. caches may be shared with the
// classifier's credential probe so probe logins are not repeated; pass nil
// to allocate fresh ones. creds may be nil (defaults only).
func NewOrchestrator(creds CredentialSource, caches map[model.Family]*deviceapi.TokenCache) *Orchestrator {
	if caches == nil {
		caches = NewTokenCaches()
	}
	return &Orchestrator{
		clients: map[model.Family]deviceapi.Client{
			model.FamilyPhone:   deviceapi.NewPhoneClient(),
			model.FamilySpeaker: deviceapi.NewSpeakerClient(),
			model.FamilyPBX:     deviceapi.NewPBXClient(),
		},
		caches: caches,
		creds:  creds,
	}
}

// NewTokenCaches allocates one token cache per device family.
func NewTokenCaches() map[model.Family]*deviceapi.TokenCache {
	return map[model.Family]*deviceapi.TokenCache{
		model.FamilyPhone:   deviceapi.NewTokenCache(),
		model.FamilySpeaker: deviceapi.NewTokenCache(),
		model.FamilyPBX:     deviceapi.NewTokenCache(),
	}
}

// Enrich fetches the device's full info blob. The result maps logical field
// names to parsed responses; failed fields are simply absent. An error is
// returned only when the family requires a session and no login succeeds.
func (o *Orchestrator) Enrich(ctx context.Context, device *model.Device) (map[string]json.RawMessage, error) {
	family := model.FamilyForType(device.Type)
	client := o.clients[family]

	username, password := deviceapi.DefaultUsername, deviceapi.DefaultPassword
	if o.creds != nil {
		username, password = o.creds.GetOrDefault(device.IP)
	}

	sess := &session{
		client:   client,
		cache:    o.caches[family],
		ip:       device.IP,
		username: username,
		password: password,
	}

	var endpoints []endpoint
	switch family {
	case model.FamilySpeaker:
		endpoints = speakerEndpoints
	case model.FamilyPBX:
		endpoints = pbxEndpoints
	default:
		endpoints = phoneEndpoints
	}

	if !sess.establish(ctx) {
		if family == model.FamilySpeaker || family == model.FamilyPBX {
			return nil, fmt.Errorf("%w: %s on %s", ErrLoginFailed, device.Type, device.IP)
		}
		// Phones sometimes tolerate anonymous reads; proceed without a
		// session marker.
		log.Debug("Phone login failed, continuing anonymously", "ip", device.IP)
	}

	info := o.fanOut(ctx, sess, endpoints)
	log.Info("Device enriched", "ip", device.IP, "type", device.Type, "fields", len(info), "requested", len(endpoints))
	return info, nil
}

// fanOut issues every endpoint call concurrently. Each task writes only its
// own field; failures are logged and omitted, never aborting siblings.
func (o *Orchestrator) fanOut(ctx context.Context, sess *session, endpoints []endpoint) map[string]json.RawMessage {
	info := make(map[string]json.RawMessage, len(endpoints))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep endpoint) {
			defer wg.Done()

			data, err := o.callWithRelogin(ctx, sess, ep.path)
			if err != nil {
				log.Debug("Enrichment field failed", "ip", sess.ip, "field", ep.field, "error", err)
				return
			}
			mu.Lock()
			info[ep.field] = data
			mu.Unlock()
		}(ep)
	}
	wg.Wait()
	return info
}

// callWithRelogin performs one endpoint call, allowing exactly one
// re-login-and-retry when the cached token turns out stale. Every other
// failure is permanent for this field.
func (o *Orchestrator) callWithRelogin(ctx context.Context, sess *session, path string) (json.RawMessage, error) {
	var result json.RawMessage

	op := func() error {
		token := sess.current()
		data, err := sess.client.Call(ctx, sess.ip, token, path, http.MethodGet, nil)
		if err == nil {
			result = data
			return nil
		}
		if deviceapi.IsAuthFailure(err) && sess.refresh(ctx, token) {
			return err // retry with the fresh token
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(reloginBackoff), 1)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// session holds the shared token state for one enrichment cycle. Concurrent
// field tasks may race to refresh it; whichever login finishes last wins.
type session struct {
	client   deviceapi.Client
	cache    *deviceapi.TokenCache
	ip       string
	username string
	password string

	mu    sync.Mutex
	token string
}

func (s *session) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// establish seeds the session from the cache or a fresh login.
func (s *session) establish(ctx context.Context) bool {
	if s.cache != nil {
		if token, ok := s.cache.Get(s.ip); ok {
			s.mu.Lock()
			s.token = token
			s.mu.Unlock()
			return true
		}
	}
	return s.login(ctx)
}

// refresh replaces a stale token. When another task already refreshed past
// the stale value the new token is used as-is.
func (s *session) refresh(ctx context.Context, stale string) bool {
	s.mu.Lock()
	if s.token != stale {
		ok := s.token != ""
		s.mu.Unlock()
		return ok
	}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Invalidate(s.ip)
	}
	return s.login(ctx)
}

func (s *session) login(ctx context.Context) bool {
	res := s.client.Login(ctx, s.ip, s.username, s.password)
	if !res.OK {
		return false
	}
	s.mu.Lock()
	s.token = res.Token
	s.mu.Unlock()
	if s.cache != nil && res.Token != "" {
		s.cache.Put(s.ip, res.Token)
	}
	return true
}
