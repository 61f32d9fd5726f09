package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/paularlott/cli"
)

func SetCommand() *cli.Command {
	return &cli.Command{
		Name:        "set",
		Usage:       "Store credentials for a device",
		Description: "Store the login username and password for one device IP",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ip", Usage: "Device IP address", Required: true},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "username", Usage: "Login username", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Login password"},
		}, serverFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			ip := cmd.GetStringArg("ip")
			if ip == "" {
				return fmt.Errorf("device IP required")
			}

			body, err := json.Marshal(map[string]string{
				"username": cmd.GetString("username"),
				"password": cmd.GetString("password"),
			})
			if err != nil {
				return err
			}

			target := cmd.GetString("server") + "/api/credentials/" + url.PathEscape(ip)
			resp, err := makeRequest("PUT", target, cmd.GetString("api-token"), strings.NewReader(string(body)))
			if err != nil {
				log.Error("Failed to connect to server", "error", err, "ip", ip)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				log.Error("Server returned error for set", "status", resp.Status, "ip", ip)
				return fmt.Errorf("server error: %s", resp.Status)
			}

			fmt.Printf("Credentials stored for %s\n", ip)
			return nil
		},
	}
}
