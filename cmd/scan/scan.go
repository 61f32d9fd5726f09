package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vaidik343/voipscout/internal/classify"
	"github.com/vaidik343/voipscout/internal/config"
	"github.com/vaidik343/voipscout/internal/creds"
	"github.com/vaidik343/voipscout/internal/discovery"
	"github.com/vaidik343/voipscout/internal/enrich"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/paularlott/cli"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "scan",
		Usage:       "Scan the network for devices",
		Description: "Run one discovery cycle against the local subnets and print the classified devices",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "active", Usage: "Prefer the active scan tool over the neighbor table"},
			&cli.BoolFlag{Name: "vendor-filter", Usage: "Keep only devices with the known vendor OUI"},
			&cli.StringFlag{Name: "subnet-ip", Usage: "Scan a single subnet (requires --subnet-mask)"},
			&cli.StringFlag{Name: "subnet-mask", Usage: "Netmask for --subnet-ip, e.g. 255.255.255.0"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full scan result as JSON"},
		}, config.GetFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			log.Configure(cfg.LogLevel, cfg.LogFormat)

			opts := model.ScanOptions{
				PreferActiveScan: cmd.GetBool("active"),
				VendorFilter:     cmd.GetBool("vendor-filter"),
			}
			if ip := cmd.GetString("subnet-ip"); ip != "" {
				mask := cmd.GetString("subnet-mask")
				if mask == "" {
					return fmt.Errorf("--subnet-ip requires --subnet-mask")
				}
				opts.Subnet = &model.SubnetSpec{IP: ip, Netmask: mask}
			}

			store, err := creds.NewStore(cfg.DataDir)
			if err != nil {
				log.Error("Failed to open credential store", "error", err)
				return err
			}
			defer store.Close()

			nmap := discovery.NewNmapRunner(cfg.NmapPath)
			engine := discovery.NewEngine(nmap, discovery.NewNeighborTable())
			classifier := classify.New(
				&classify.DeepScanStrategy{},
				&classify.VendorStrategy{},
				&classify.PortStrategy{},
				classify.NewCredentialProbeStrategy(store, enrich.NewTokenCaches()),
			)

			log.Info("Starting scan", "active", opts.PreferActiveScan, "filter", opts.VendorFilter)
			result, err := engine.Discover(ctx, opts)
			if err != nil {
				log.Error("Scan failed", "error", err)
				return err
			}

			classifyDevices(ctx, classifier, nmap, result.Devices)
			log.Info("Scan finished", "strategy", result.Strategy, "devices", len(result.Devices), "took", result.Duration)

			if cmd.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printDevices(result.Devices)
			return nil
		},
	}
}

func classifyDevices(ctx context.Context, classifier *classify.Classifier, nmap *discovery.NmapRunner, devices []model.Device) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)

	for i := range devices {
		wg.Add(1)
		go func(d *model.Device) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var ev classify.Evidence
			if nmap.Available() {
				if text, err := nmap.DeepScan(ctx, d.IP); err == nil {
					ev.DeepScan = text
				}
			}
			d.Type = classifier.Classify(ctx, d, ev)
		}(&devices[i])
	}
	wg.Wait()
}

func printDevices(devices []model.Device) {
	if len(devices) == 0 {
		fmt.Println("No devices found")
		return
	}
	fmt.Printf("%-16s %-18s %-20s %-10s %s\n", "IP", "MAC", "VENDOR", "TYPE", "PORTS")
	for _, d := range devices {
		ports := ""
		for i, p := range d.OpenPorts {
			if i > 0 {
				ports += ","
			}
			ports += fmt.Sprintf("%d", p)
		}
		fmt.Printf("%-16s %-18s %-20s %-10s %s\n", d.IP, d.MAC, d.Vendor, d.Type, ports)
	}
}
