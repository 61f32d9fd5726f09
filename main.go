package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vaidik343/voipscout/cmd/creds"
	"github.com/vaidik343/voipscout/cmd/enrich"
	"github.com/vaidik343/voipscout/cmd/scan"
	"github.com/vaidik343/voipscout/cmd/server"
	"github.com/paularlott/cli"
)

func main() {
	root := &cli.Command{
		Name:        "voipscout",
		Usage:       "Network device discovery and enrichment",
		Description: "Discover IP phones, speakers, and PBX systems on the local network, classify them, and pull their device info",
		Commands: []*cli.Command{
			server.Command(),
			scan.Command(),
			enrich.Command(),
			creds.Command(),
		},
	}

	if err := root.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
