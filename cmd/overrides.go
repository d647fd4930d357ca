package cmd

import (
	"github.com/spf13/cobra"

	"github.com/s0up4200/mtstation/config"
)

// Connection overrides shared by the commands that talk to a service
var (
	apiKey    string
	outputDir string
	rssURL    string

	stationHost     string
	stationPort     int
	stationAccount  string
	stationPassword string
)

func addTrackerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&apiKey, "key", "", "M-Team API key (overrides tracker.api_key)")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (overrides tracker.output)")
}

func addStationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&stationHost, "ip", "", "Synology NAS address (overrides station.synology.ip)")
	cmd.Flags().IntVar(&stationPort, "port", 0, "Synology NAS port (overrides station.synology.port)")
	cmd.Flags().StringVar(&stationAccount, "account", "", "Synology NAS account (overrides station.synology.account)")
	cmd.Flags().StringVar(&stationPassword, "password", "", "Synology NAS password (overrides station.synology.password)")
}

// applyOverrides copies the connection flags set on cmd into cfg
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("key") {
		cfg.Tracker.APIKey = apiKey
	}
	if changed("output") {
		cfg.Tracker.Output = outputDir
	}
	if changed("rss") {
		cfg.Tracker.RSS = rssURL
	}
	if changed("ip") {
		cfg.Station.Synology.IP = stationHost
	}
	if changed("port") {
		cfg.Station.Synology.Port = stationPort
	}
	if changed("account") {
		cfg.Station.Synology.Account = stationAccount
	}
	if changed("password") {
		cfg.Station.Synology.Password = stationPassword
	}
}
