package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/vaidik343/voipscout/internal/classify"
	"github.com/vaidik343/voipscout/internal/discovery"
	"github.com/vaidik343/voipscout/internal/enrich"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
)

// classifyWorkers bounds concurrent post-scan classification, which may
// involve live deep scans and credential probes.
const classifyWorkers = 8

// Discoverer runs one discovery cycle.
type Discoverer interface {
	Discover(ctx context.Context, opts model.ScanOptions) (*model.ScanResult, error)
}

// Enricher fetches one device's info blob.
type Enricher interface {
	Enrich(ctx context.Context, device *model.Device) (map[string]json.RawMessage, error)
}

// Classifier assigns a device type.
type Classifier interface {
	Classify(ctx context.Context, d *model.Device, ev classify.Evidence) model.DeviceType
}

// DeepScanner produces service-fingerprint text for one host. May be nil
// when the scan tool is unavailable.
type DeepScanner interface {
	Available() bool
	DeepScan(ctx context.Context, ip string) (string, error)
}

// CredentialStore is the persistence surface for device credentials.
type CredentialStore interface {
	Set(ip, username, password string) error
	Remove(ip string) error
	List() ([]model.Credential, error)
}

// Handler handles HTTP requests
type Handler struct {
	discoverer Discoverer
	enricher   Enricher
	classifier Classifier
	deep       DeepScanner
	creds      CredentialStore

	// last completed scan; superseded wholesale by the next one
	mu       sync.RWMutex
	lastScan *model.ScanResult
}

// NewHandler creates a new API handler
func NewHandler(d Discoverer, e Enricher, c Classifier, deep DeepScanner, creds CredentialStore) *Handler {
	return &Handler{
		discoverer: d,
		enricher:   e,
		classifier: c,
		deep:       deep,
		creds:      creds,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/scan", h.runScan)
	mux.HandleFunc("GET /api/devices", h.listDevices)
	mux.HandleFunc("POST /api/devices/{ip}/enrich", h.enrichDevice)

	mux.HandleFunc("GET /api/credentials", h.listCredentials)
	mux.HandleFunc("PUT /api/credentials/{ip}", h.setCredentials)
	mux.HandleFunc("DELETE /api/credentials/{ip}", h.removeCredentials)
}

// runScan handles POST /api/scan
func (h *Handler) runScan(w http.ResponseWriter, r *http.Request) {
	var opts model.ScanOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			log.Warn("Invalid scan request body", "error", err)
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	log.Info("Scan requested", "active", opts.PreferActiveScan, "filter", opts.VendorFilter)
	result, err := h.discoverer.Discover(r.Context(), opts)
	if err != nil {
		log.Error("Discovery scan failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "discovery failed: "+err.Error())
		return
	}

	h.classifyAll(r.Context(), result.Devices)

	h.mu.Lock()
	h.lastScan = result
	h.mu.Unlock()

	log.Info("Scan completed", "scan_id", result.ID, "devices", len(result.Devices))
	h.writeJSON(w, http.StatusOK, result)
}

// classifyAll assigns a type to every discovered device, running deep scans
// where the tool allows. Classification failures leave Unknown in place.
func (h *Handler) classifyAll(ctx context.Context, devices []model.Device) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, classifyWorkers)

	for i := range devices {
		wg.Add(1)
		go func(d *model.Device) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var ev classify.Evidence
			if h.deep != nil && h.deep.Available() {
				if text, err := h.deep.DeepScan(ctx, d.IP); err == nil {
					ev.DeepScan = text
				} else {
					log.Debug("Deep scan failed", "ip", d.IP, "error", err)
				}
			}
			d.Type = h.classifier.Classify(ctx, d, ev)
		}(&devices[i])
	}
	wg.Wait()
}

// listDevices handles GET /api/devices
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	scan := h.lastScan
	h.mu.RUnlock()

	if scan == nil {
		h.writeJSON(w, http.StatusOK, []model.Device{})
		return
	}
	h.writeJSON(w, http.StatusOK, scan.Devices)
}

// enrichDevice handles POST /api/devices/{ip}/enrich
func (h *Handler) enrichDevice(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	if ip == "" {
		h.writeError(w, http.StatusBadRequest, "device IP required")
		return
	}

	device := h.findDevice(ip)
	if device == nil {
		// Enrichment of a host outside the last scan is still allowed;
		// the caller supplies the type.
		device = &model.Device{IP: ip, Type: model.TypeUnknown, Online: true}
	}
	if t := r.URL.Query().Get("type"); t != "" {
		device.Type = model.DeviceType(t)
	}

	log.Debug("Enriching device", "ip", ip, "type", device.Type)
	info, err := h.enricher.Enrich(r.Context(), device)
	if err != nil {
		if errors.Is(err, enrich.ErrLoginFailed) {
			h.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		h.internalError(w, err)
		return
	}

	h.attachInfo(ip, info)
	log.Info("Device enriched", "ip", ip, "fields", len(info))
	h.writeJSON(w, http.StatusOK, info)
}

// findDevice copies a device out of the last scan snapshot.
func (h *Handler) findDevice(ip string) *model.Device {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastScan == nil {
		return nil
	}
	for _, d := range h.lastScan.Devices {
		if d.IP == ip {
			found := d
			return &found
		}
	}
	return nil
}

// attachInfo stores an enrichment result on the snapshot device, when it is
// still part of the current scan.
func (h *Handler) attachInfo(ip string, info map[string]json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastScan == nil {
		return
	}
	for i := range h.lastScan.Devices {
		if h.lastScan.Devices[i].IP == ip {
			h.lastScan.Devices[i].Info = info
			return
		}
	}
}

// listCredentials handles GET /api/credentials
func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	list, err := h.creds.List()
	if err != nil {
		log.Error("Failed to list credentials", "error", err)
		h.internalError(w, err)
		return
	}
	if list == nil {
		list = []model.Credential{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

// setCredentials handles PUT /api/credentials/{ip}
func (h *Handler) setCredentials(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Username == "" {
		h.writeError(w, http.StatusBadRequest, "username required")
		return
	}

	if err := h.creds.Set(ip, body.Username, body.Password); err != nil {
		log.Error("Failed to store credentials", "error", err, "ip", ip)
		h.internalError(w, err)
		return
	}
	log.Info("Credentials stored", "ip", ip)
	w.WriteHeader(http.StatusNoContent)
}

// removeCredentials handles DELETE /api/credentials/{ip}
func (h *Handler) removeCredentials(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	if err := h.creds.Remove(ip); err != nil {
		log.Error("Failed to remove credentials", "error", err, "ip", ip)
		h.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

// ensure the concrete engine satisfies the handler interface
var _ Discoverer = (*discovery.Engine)(nil)
