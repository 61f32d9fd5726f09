package config

import (
	"path/filepath"

	"github.com/paularlott/cli"
)

type Config struct {
	DataDir      string
	ListenAddr   string
	APIAuthToken string
	NmapPath     string
	LogLevel     string
	LogFormat    string
}

var (
	dataDir      string
	listenAddr   string
	apiAuthToken string
	nmapPath     string
	logLevel     string
	logFormat    string
)

func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory path",
			EnvVars:      []string{"VOIPSCOUT_DATA_DIR"},
			DefaultValue: filepath.Join(".", "data"),
			AssignTo:     &dataDir,
		},
		&cli.StringFlag{
			Name:         "addr",
			Usage:        "Server listen address",
			EnvVars:      []string{"VOIPSCOUT_LISTEN_ADDR"},
			DefaultValue: ":8080",
			AssignTo:     &listenAddr,
		},
		&cli.StringFlag{
			Name:     "api-token",
			Usage:    "API bearer token",
			EnvVars:  []string{"VOIPSCOUT_API_TOKEN"},
			AssignTo: &apiAuthToken,
		},
		&cli.StringFlag{
			Name:     "nmap-path",
			Usage:    "Path to the nmap binary (default: search PATH)",
			EnvVars:  []string{"VOIPSCOUT_NMAP_PATH"},
			AssignTo: &nmapPath,
		},
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (debug, info, warn, error)",
			EnvVars:      []string{"VOIPSCOUT_LOG_LEVEL"},
			DefaultValue: "info",
			AssignTo:     &logLevel,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console, json)",
			EnvVars:      []string{"VOIPSCOUT_LOG_FORMAT"},
			DefaultValue: "console",
			AssignTo:     &logFormat,
		},
	}
}

func Load() *Config {
	return &Config{
		DataDir:      dataDir,
		ListenAddr:   listenAddr,
		APIAuthToken: apiAuthToken,
		NmapPath:     nmapPath,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
	}
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}
