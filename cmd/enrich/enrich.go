package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/vaidik343/voipscout/internal/config"
	"github.com/vaidik343/voipscout/internal/log"
	"github.com/paularlott/cli"
)

func getDefaultServerURL() string {
	cfg := config.Load()
	return "http://localhost" + cfg.ListenAddr
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "enrich",
		Usage:       "Fetch device info over its management API",
		Description: "Ask the server to enrich one device and print the collected info fields",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ip", Usage: "Device IP address", Required: true},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "Device type override (IP Phone, Speaker, PBX)"},
			&cli.StringFlag{Name: "server", Usage: "Server URL", DefaultValue: getDefaultServerURL()},
			&cli.StringFlag{Name: "api-token", Usage: "API authentication token", EnvVars: []string{"VOIPSCOUT_API_TOKEN"}},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			ip := cmd.GetStringArg("ip")
			if ip == "" {
				return fmt.Errorf("device IP required")
			}

			target := cmd.GetString("server") + "/api/devices/" + url.PathEscape(ip) + "/enrich"
			if t := cmd.GetString("type"); t != "" {
				target += "?type=" + url.QueryEscape(t)
			}
			log.Debug("Requesting enrichment", "ip", ip, "url", target)

			req, err := http.NewRequestWithContext(ctx, "POST", target, nil)
			if err != nil {
				return err
			}
			if token := cmd.GetString("api-token"); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			client := &http.Client{Timeout: 60 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				log.Error("Failed to connect to server", "error", err, "ip", ip)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				log.Error("Server returned error for enrich", "status", resp.Status, "ip", ip)
				return fmt.Errorf("server error: %s", resp.Status)
			}

			var info map[string]json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
				log.Error("Failed to decode enrich response", "error", err)
				return err
			}

			log.Info("Device enriched", "ip", ip, "fields", len(info))
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
