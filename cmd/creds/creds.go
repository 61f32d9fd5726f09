package creds

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vaidik343/voipscout/internal/config"
	"github.com/vaidik343/voipscout/internal/model"
	"github.com/paularlott/cli"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "creds",
		Usage:       "Manage device credentials",
		Description: "List, store, and remove per-device login credentials",
		Commands: []*cli.Command{
			ListCommand(),
			SetCommand(),
			RemoveCommand(),
		},
	}
}

func getDefaultServerURL() string {
	cfg := config.Load()
	return "http://localhost" + cfg.ListenAddr
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "server", Usage: "Server URL", DefaultValue: getDefaultServerURL()},
		&cli.StringFlag{Name: "api-token", Usage: "API authentication token", EnvVars: []string{"VOIPSCOUT_API_TOKEN"}},
	}
}

func makeRequest(method, url, token string, body *strings.Reader) (*http.Response, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, url, body)
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return client.Do(req)
}

func printCredentials(list []model.Credential) {
	if len(list) == 0 {
		fmt.Println("No credentials stored")
		return
	}
	fmt.Printf("%-16s %-20s %s\n", "IP", "USERNAME", "UPDATED")
	for _, c := range list {
		fmt.Printf("%-16s %-20s %s\n", c.IP, c.Username, c.LastUpdated.Format(time.RFC3339))
	}
}
