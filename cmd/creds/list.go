package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vaidik343/voipscout/internal/log"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/paularlott/cli"
)

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List stored credentials",
		Description: "List all devices with stored credentials (passwords are not shown)",
		Flags:       serverFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.GetString("server") + "/api/credentials"
			log.Debug("Listing credentials", "server", cmd.GetString("server"))

			resp, err := makeRequest("GET", url, cmd.GetString("api-token"), nil)
			if err != nil {
				log.Error("Failed to connect to server for list", "error", err)
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				log.Error("Server returned error for list", "status", resp.Status)
				return fmt.Errorf("server error: %s", resp.Status)
			}

			var list []model.Credential
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				log.Error("Failed to decode credential list response", "error", err)
				return err
			}

			printCredentials(list)
			return nil
		},
	}
}
