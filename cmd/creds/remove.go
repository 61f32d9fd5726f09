package creds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/paularlott/cli"
)

func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:        "remove",
		Usage:       "Remove stored credentials",
		Description: "Delete the stored credentials for one device IP",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ip", Usage: "Device IP address", Required: true},
		},
		Flags: serverFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			ip := cmd.GetStringArg("ip")
			if ip == "" {
				return fmt.Errorf("device IP required")
			}

			target := cmd.GetString("server") + "/api/credentials/" + url.PathEscape(ip)
			resp, err := makeRequest("DELETE", target, cmd.GetString("api-token"), nil)
			if err != nil {
				log.Error("Failed to connect to server", "error", err, "ip", ip)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				log.Error("Server returned error for remove", "status", resp.Status, "ip", ip)
				return fmt.Errorf("server error: %s", resp.Status)
			}

			fmt.Printf("Credentials removed for %s\n", ip)
			return nil
		},
	}
}
